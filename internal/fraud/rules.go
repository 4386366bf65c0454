package fraud

import (
	"math"
	"time"
)

const (
	// Probability at or above which a verdict is fraudulent.
	fraudProbabilityThreshold = 0.7

	SourceRuleBased = "rule-based"
	SourceModel     = "ml-model"

	messageFraudulent = "This booking has been flagged as potentially fraudulent"
	messageLegitimate = "This booking appears to be legitimate"
)

// Signal records which rule fired and the feature value that triggered it.
type Signal struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Weight  float64 `json:"weight"`
	Message string  `json:"message"`
}

// FraudVerdict is the outcome of scoring a single feature vector.
type FraudVerdict struct {
	IsFraudulent      bool     `json:"isFraudulent"`
	FraudProbability  float64  `json:"fraudProbability"`
	Confidence        float64  `json:"confidence"`
	Message           string   `json:"message"`
	Factors           []string `json:"factors"`
	Signals           []Signal `json:"signals,omitempty"`
	Source            string   `json:"source"`
	AnalysisTimestamp string   `json:"analysisTimestamp"`
}

type scoringRule struct {
	feature   string
	weight    float64
	message   string
	triggered func(FeatureVector) bool
	value     func(FeatureVector) float64
}

// The rule set fires additively in declaration order. The accumulated
// probability is intentionally not clamped, so several rules together can
// push it past 1.0.
var scoringRules = []scoringRule{
	{
		feature: "leadTime",
		weight:  0.25,
		message: "Very short lead time with history of cancellations",
		triggered: func(f FeatureVector) bool {
			return f.LeadTime < 2 && f.CancellationRatio > 0.3
		},
		value: func(f FeatureVector) float64 { return f.LeadTime },
	},
	{
		feature: "cancellationRatio",
		weight:  0.30,
		message: "High cancellation ratio (>50%)",
		triggered: func(f FeatureVector) bool {
			return f.CancellationRatio > 0.5
		},
		value: func(f FeatureVector) float64 { return f.CancellationRatio },
	},
	{
		feature: "cancellationsLast24Hours",
		weight:  0.25,
		message: "Multiple cancellations in last 24 hours",
		triggered: func(f FeatureVector) bool {
			return f.CancellationsLast24Hours > 1
		},
		value: func(f FeatureVector) float64 { return f.CancellationsLast24Hours },
	},
	{
		feature: "timeSinceBooking",
		weight:  0.20,
		message: "Very quick cancellation after booking for a trip far in the future",
		triggered: func(f FeatureVector) bool {
			return f.TimeSinceBooking < 60 && f.LeadTime > 14
		},
		value: func(f FeatureVector) float64 { return f.TimeSinceBooking },
	},
}

// fraudulentAt reports whether a probability reaches the fraud threshold.
// The boundary is inclusive.
func fraudulentAt(probability float64) bool {
	return probability >= fraudProbabilityThreshold
}

// ScoreRuleBased evaluates the deterministic rule set against a feature
// vector. It never fails; a vector that trips no rules scores zero.
func ScoreRuleBased(features FeatureVector) *FraudVerdict {
	var probability float64
	var factors []string
	var signals []Signal

	for _, rule := range scoringRules {
		if !rule.triggered(features) {
			continue
		}
		probability += rule.weight
		factors = append(factors, rule.message)
		signals = append(signals, Signal{
			Feature: rule.feature,
			Value:   rule.value(features),
			Weight:  rule.weight,
			Message: rule.message,
		})
	}

	verdict := &FraudVerdict{
		IsFraudulent:      fraudulentAt(probability),
		FraudProbability:  probability,
		Confidence:        math.Round(probability*100) / 100,
		Factors:           factors,
		Signals:           signals,
		Source:            SourceRuleBased,
		AnalysisTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if verdict.IsFraudulent {
		verdict.Message = messageFraudulent
	} else {
		verdict.Message = messageLegitimate
	}
	return verdict
}
