package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreRuleBasedNoHistory(t *testing.T) {
	verdict := ScoreRuleBased(FeatureVector{})

	assert.False(t, verdict.IsFraudulent)
	assert.Equal(t, 0.0, verdict.FraudProbability)
	assert.Equal(t, 0.0, verdict.Confidence)
	assert.Empty(t, verdict.Factors)
	assert.Equal(t, SourceRuleBased, verdict.Source)
	assert.Equal(t, messageLegitimate, verdict.Message)
}

func TestScoreRuleBasedSingleRule(t *testing.T) {
	verdict := ScoreRuleBased(FeatureVector{CancellationRatio: 0.6})

	assert.False(t, verdict.IsFraudulent)
	assert.InDelta(t, 0.30, verdict.FraudProbability, 1e-9)
	assert.Equal(t, []string{"High cancellation ratio (>50%)"}, verdict.Factors)
}

func TestScoreRuleBasedSerialCanceller(t *testing.T) {
	// Short lead time, heavy cancellation history, and a burst in the last
	// day together trip three rules.
	verdict := ScoreRuleBased(FeatureVector{
		LeadTime:                 1,
		CancellationRatio:        0.6,
		CancellationsLast24Hours: 3,
		TimeSinceBooking:         30,
	})

	assert.True(t, verdict.IsFraudulent)
	assert.InDelta(t, 0.80, verdict.FraudProbability, 1e-9)
	assert.InDelta(t, 0.80, verdict.Confidence, 1e-9)
	assert.Equal(t, messageFraudulent, verdict.Message)
	assert.Equal(t, []string{
		"Very short lead time with history of cancellations",
		"High cancellation ratio (>50%)",
		"Multiple cancellations in last 24 hours",
	}, verdict.Factors)
}

func TestScoreRuleBasedQuickCancelFarFuture(t *testing.T) {
	// Cancelled within the hour for a trip more than two weeks out.
	verdict := ScoreRuleBased(FeatureVector{
		LeadTime:         20,
		TimeSinceBooking: 15,
	})

	assert.False(t, verdict.IsFraudulent)
	assert.InDelta(t, 0.20, verdict.FraudProbability, 1e-9)
	assert.Equal(t, []string{
		"Very quick cancellation after booking for a trip far in the future",
	}, verdict.Factors)
}

func TestScoreRuleBasedThreshold(t *testing.T) {
	// 0.30 + 0.25 + 0.20 crosses the 0.7 threshold.
	above := ScoreRuleBased(FeatureVector{
		LeadTime:                 20,
		CancellationRatio:        0.6,
		CancellationsLast24Hours: 2,
		TimeSinceBooking:         30,
	})
	assert.True(t, above.IsFraudulent)
	assert.InDelta(t, 0.75, above.FraudProbability, 1e-9)

	// 0.30 + 0.25 stays below it.
	below := ScoreRuleBased(FeatureVector{
		CancellationRatio:        0.6,
		CancellationsLast24Hours: 2,
		TimeSinceBooking:         120,
	})
	assert.False(t, below.IsFraudulent)
	assert.InDelta(t, 0.55, below.FraudProbability, 1e-9)
}

func TestScoreRuleBasedBoundariesDoNotFire(t *testing.T) {
	// Each value sits exactly on its rule boundary; strict comparisons mean
	// none of them fire.
	verdict := ScoreRuleBased(FeatureVector{
		LeadTime:                 2,
		CancellationRatio:        0.5,
		CancellationsLast24Hours: 1,
		TimeSinceBooking:         60,
	})

	assert.Equal(t, 0.0, verdict.FraudProbability)
	assert.Empty(t, verdict.Factors)
}

func TestScoreRuleBasedDeterministic(t *testing.T) {
	features := FeatureVector{
		LeadTime:                 1,
		CancellationRatio:        0.9,
		CancellationsLast24Hours: 4,
	}

	first := ScoreRuleBased(features)
	second := ScoreRuleBased(features)

	assert.Equal(t, first.FraudProbability, second.FraudProbability)
	assert.Equal(t, first.Factors, second.Factors)
	assert.Equal(t, first.IsFraudulent, second.IsFraudulent)
}

func TestScoreRuleBasedSignals(t *testing.T) {
	verdict := ScoreRuleBased(FeatureVector{CancellationRatio: 0.75})

	assert.Len(t, verdict.Signals, 1)
	assert.Equal(t, "cancellationRatio", verdict.Signals[0].Feature)
	assert.Equal(t, 0.75, verdict.Signals[0].Value)
	assert.Equal(t, 0.30, verdict.Signals[0].Weight)
}

func TestFraudulentAtBoundaryIsInclusive(t *testing.T) {
	// A probability exactly at the threshold is fraudulent. The current rule
	// weights cannot sum to exactly 0.7, so the comparison is pinned here to
	// survive future weight changes.
	assert.True(t, fraudulentAt(fraudProbabilityThreshold))
	assert.True(t, fraudulentAt(fraudProbabilityThreshold+1e-9))
	assert.False(t, fraudulentAt(fraudProbabilityThreshold-1e-9))
}
