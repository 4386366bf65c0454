package fraud

import (
	"math"
)

// Weights and reference values for the hotel-industry comparison. The
// reference pattern describes a typical legitimate hotel customer and is the
// yardstick every user is measured against.
const (
	weightLeadTime            = 0.25
	weightTimeBeforeDeparture = 0.20
	weightCancellationRatio   = 0.30
	weightAdultToChildRatio   = 0.15
	bonusPeakDayMatch         = 0.05
	bonusPeakHourMatch        = 0.05

	peakHourTolerance = 2

	// Overall scores below this are treated as suspicious deviation.
	suspiciousSimilarityThreshold = 40

	patternHistoryWindow = 10
)

// HotelReferencePattern is the published baseline of typical customer behavior.
type HotelReferencePattern struct {
	AverageLeadTime            float64 `json:"averageLeadTime"`
	AverageTimeBeforeDeparture float64 `json:"averageTimeBeforeDeparture"`
	CancellationRatio          float64 `json:"cancellationRatio"`
	AdultToChildRatio          float64 `json:"adultToChildRatio"`
	PeakCancellationDay        int     `json:"peakCancellationDay"`
	PeakCancellationHour       int     `json:"peakCancellationHour"`
}

// HotelReference returns the baseline pattern. Day of week is 0=Sunday.
func HotelReference() HotelReferencePattern {
	return HotelReferencePattern{
		AverageLeadTime:            21,
		AverageTimeBeforeDeparture: 5,
		CancellationRatio:          0.12,
		AdultToChildRatio:          2.5,
		PeakCancellationDay:        5,
		PeakCancellationHour:       18,
	}
}

// UserPatternMetrics are the aggregates derived from a user's recent history.
type UserPatternMetrics struct {
	AverageLeadTime            float64 `json:"averageLeadTime"`
	AverageTimeBeforeDeparture float64 `json:"averageTimeBeforeDeparture"`
	CancellationRatio          float64 `json:"cancellationRatio"`
	AdultToChildRatio          float64 `json:"adultToChildRatio"`
	PeakCancellationDay        int     `json:"peakCancellationDay"`
	PeakCancellationHour       int     `json:"peakCancellationHour"`
}

// DimensionScores holds the per-dimension similarity on a 0-100 scale.
type DimensionScores struct {
	LeadTime            int `json:"leadTime"`
	TimeBeforeDeparture int `json:"timeBeforeDeparture"`
	CancellationRatio   int `json:"cancellationRatio"`
	AdultToChildRatio   int `json:"adultToChildRatio"`
	PeakTiming          int `json:"peakTiming"`
}

// ComparisonDataPoints carries the raw inputs behind a comparison verdict.
type ComparisonDataPoints struct {
	User             UserPatternMetrics    `json:"user"`
	Hotel            HotelReferencePattern `json:"hotel"`
	SimilarityScores DimensionScores       `json:"similarityScores"`
	Source           string                `json:"source"`
}

// PatternComparisonResult is the outcome of comparing a user's cancellation
// behavior against the hotel reference pattern.
type PatternComparisonResult struct {
	SimilarityScore int                   `json:"similarityScore"`
	IsSuspicious    bool                  `json:"isSuspicious"`
	Message         string                `json:"message"`
	Recommendation  string                `json:"recommendation"`
	Source          string                `json:"source,omitempty"`
	DataPoints      *ComparisonDataPoints `json:"dataPoints,omitempty"`
}

// ratioSimilarity compares two positive magnitudes as min(a/b, b/a), so equal
// values score 1 and a zero on either side scores 0.
func ratioSimilarity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Min(a/b, b/a)
}

// peakIndex returns the first index holding the maximum count.
func peakIndex(counts []int) int {
	peak := 0
	for i, n := range counts {
		if n > counts[peak] {
			peak = i
		}
	}
	return peak
}

// ComparePatterns is the local fallback comparator. It looks at the user's
// most recent cancellations (up to ten) and scores how closely their behavior
// tracks the hotel reference across four weighted dimensions plus peak-timing
// bonuses. Both inputs may be nil or empty.
func ComparePatterns(profile *UserFraudProfile, cancellations []*CancellationRecord) *PatternComparisonResult {
	if profile == nil {
		return &PatternComparisonResult{
			SimilarityScore: 0,
			Message:         "No user profile found",
			Recommendation:  "Insufficient data for pattern analysis",
		}
	}
	if len(cancellations) == 0 {
		return &PatternComparisonResult{
			SimilarityScore: 0,
			Message:         "No cancellation history found",
			Recommendation:  "Insufficient data for pattern analysis",
		}
	}

	recent := cancellations
	if len(recent) > patternHistoryWindow {
		recent = recent[:patternHistoryWindow]
	}

	var leadTimeSum, departureSum, adultSum, childSum float64
	dayCounts := make([]int, 7)
	hourCounts := make([]int, 24)
	for _, rec := range recent {
		leadTimeSum += rec.OriginalBooking.LeadTime
		departureSum += rec.TimeBeforeDeparture
		adultSum += float64(rec.OriginalBooking.Adults)
		childSum += float64(rec.OriginalBooking.Children)
		dayCounts[int(rec.CancellationDate.Weekday())]++
		hourCounts[rec.CancellationDate.Hour()]++
	}
	n := float64(len(recent))

	// The passenger mix is taken from the cancelled bookings themselves, not
	// the profile-wide averages, so it reflects what the user cancels.
	avgAdults := adultSum / n
	avgChildren := childSum / n
	adultToChildRatio := avgAdults
	if avgChildren > 0 {
		adultToChildRatio = avgAdults / avgChildren
	}

	user := UserPatternMetrics{
		AverageLeadTime:            leadTimeSum / n,
		AverageTimeBeforeDeparture: departureSum / n,
		CancellationRatio:          profile.CancellationRatio,
		AdultToChildRatio:          adultToChildRatio,
		PeakCancellationDay:        peakIndex(dayCounts),
		PeakCancellationHour:       peakIndex(hourCounts),
	}
	hotel := HotelReference()

	leadTimeSim := ratioSimilarity(user.AverageLeadTime, hotel.AverageLeadTime)
	departureSim := ratioSimilarity(user.AverageTimeBeforeDeparture, hotel.AverageTimeBeforeDeparture)
	ratioSim := ratioSimilarity(user.CancellationRatio, hotel.CancellationRatio)
	adultChildSim := ratioSimilarity(user.AdultToChildRatio, hotel.AdultToChildRatio)

	dayMatch := user.PeakCancellationDay == hotel.PeakCancellationDay
	hourMatch := math.Abs(float64(user.PeakCancellationHour-hotel.PeakCancellationHour)) <= peakHourTolerance

	weighted := leadTimeSim*weightLeadTime +
		departureSim*weightTimeBeforeDeparture +
		ratioSim*weightCancellationRatio +
		adultChildSim*weightAdultToChildRatio
	if dayMatch {
		weighted += bonusPeakDayMatch
	}
	if hourMatch {
		weighted += bonusPeakHourMatch
	}

	overall := int(math.Round(weighted * 100))

	peakScore := 0
	switch {
	case dayMatch && hourMatch:
		peakScore = 100
	case dayMatch || hourMatch:
		peakScore = 50
	}

	result := &PatternComparisonResult{
		SimilarityScore: overall,
		IsSuspicious:    overall < suspiciousSimilarityThreshold,
		Message:         "Pattern comparison completed",
		Recommendation:  recommendationFor(overall),
		DataPoints: &ComparisonDataPoints{
			User:  user,
			Hotel: hotel,
			SimilarityScores: DimensionScores{
				LeadTime:            int(math.Round(leadTimeSim * 100)),
				TimeBeforeDeparture: int(math.Round(departureSim * 100)),
				CancellationRatio:   int(math.Round(ratioSim * 100)),
				AdultToChildRatio:   int(math.Round(adultChildSim * 100)),
				PeakTiming:          peakScore,
			},
			Source: "fallback",
		},
	}
	return result
}

func recommendationFor(score int) string {
	switch {
	case score > 70:
		return "User cancellation patterns match typical hotel customer behavior"
	case score >= suspiciousSimilarityThreshold:
		return "User shows some deviation from typical patterns but within acceptable range"
	default:
		return "User cancellation patterns deviate significantly from typical customer behavior"
	}
}
