package fraud

import (
	"time"

	"github.com/google/uuid"
)

// CancellationReason categorizes why a booking was cancelled.
type CancellationReason string

const (
	ReasonUserCancelled   CancellationReason = "user_cancelled"
	ReasonPaymentFailed   CancellationReason = "payment_failed"
	ReasonSystemCancelled CancellationReason = "system_cancelled"
	ReasonOwnerCancelled  CancellationReason = "owner_cancelled"
	ReasonOther           CancellationReason = "other"
)

// UserFraudProfile aggregates a user's booking and cancellation behavior.
// The rolling time-window counters are recomputed from the cancellation log
// on every update; the lifetime counters only ever grow.
type UserFraudProfile struct {
	UserID uuid.UUID `json:"user_id"`

	// Cancellation patterns
	TotalCancellations int     `json:"total_cancellations"`
	TotalBookings      int     `json:"total_bookings"`
	CancellationRatio  float64 `json:"cancellation_ratio"`

	// Time-based patterns
	CancellationsLast24Hours int `json:"cancellations_last_24_hours"`
	CancellationsLast7Days   int `json:"cancellations_last_7_days"`
	CancellationsLast30Days  int `json:"cancellations_last_30_days"`
	// Hours between consecutive cancellations; nil until there are at least two.
	AverageTimeBetweenCancellations *float64 `json:"average_time_between_cancellations"`

	// Boat patterns
	DistinctBoatsBooked          int            `json:"distinct_boats_booked"`
	DistinctBoatsCancelled       int            `json:"distinct_boats_cancelled"`
	BoatCancellationDistribution map[string]int `json:"boat_cancellation_distribution,omitempty"`

	// Passenger patterns
	AverageAdults      float64 `json:"average_adults"`
	AverageChildren    float64 `json:"average_children"`
	AdultChildrenRatio float64 `json:"adult_children_ratio"`
	PassengerVariance  float64 `json:"passenger_variance"`

	// Lead time patterns
	AverageLeadTime       float64 `json:"average_lead_time"`
	LeadTimeVariance      float64 `json:"lead_time_variance"`
	ShortLeadTimeBookings int     `json:"short_lead_time_bookings"`

	// Current fraud assessment
	CurrentFraudScore float64 `json:"current_fraud_score"`
	IsFlagged         bool    `json:"is_flagged"`
	FlagReason        string  `json:"flag_reason"`

	LastUpdated          time.Time  `json:"last_updated"`
	LastBookingDate      *time.Time `json:"last_booking_date,omitempty"`
	LastCancellationDate *time.Time `json:"last_cancellation_date,omitempty"`
}

// BookingSnapshot freezes the original booking details on a cancellation record.
type BookingSnapshot struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Adults      int       `json:"adults"`
	Children    int       `json:"children"`
	TotalAmount float64   `json:"total_amount"`
	// Days between booking creation and trip start, computed once at booking time.
	LeadTime float64 `json:"lead_time"`
}

// CancellationRecord captures one cancellation event. Immutable after creation
// except for the denormalized fraud annotation fields.
type CancellationRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BookingID uuid.UUID `json:"booking_id"`
	BoatID    uuid.UUID `json:"boat_id"`

	CancellationDate   time.Time          `json:"cancellation_date"`
	CancellationReason CancellationReason `json:"cancellation_reason"`
	UserProvidedReason string             `json:"user_provided_reason,omitempty"`

	OriginalBooking BookingSnapshot `json:"original_booking_data"`

	// Minutes between booking creation and cancellation.
	TimeSinceBooking float64 `json:"time_since_booking"`
	// Days between cancellation and planned trip start.
	TimeBeforeDeparture float64 `json:"time_before_departure"`

	IPAddress  string `json:"ip_address,omitempty"`
	DeviceInfo string `json:"device_info,omitempty"`

	IsSuspicious bool    `json:"is_suspicious"`
	FraudScore   float64 `json:"fraud_score"`

	CreatedAt time.Time `json:"created_at"`
}

// Booking is the behavioral-history view of a booking used for profile aggregation.
type Booking struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	BoatID      uuid.UUID `json:"boat_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Adults      int       `json:"adults"`
	Children    int       `json:"children"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// FraudStatistics summarizes fraud activity across all profiles.
type FraudStatistics struct {
	TotalProfiles            int     `json:"total_profiles"`
	FlaggedProfiles          int     `json:"flagged_profiles"`
	HighRiskProfiles         int     `json:"high_risk_profiles"`
	AverageFraudScore        float64 `json:"average_fraud_score"`
	TotalCancellations       int     `json:"total_cancellations"`
	SuspiciousCancellations  int     `json:"suspicious_cancellations"`
	CancellationsLast24Hours int     `json:"cancellations_last_24_hours"`
}

// RiskLevelFor buckets a 0-100 profile score the way the admin dashboard expects.
func RiskLevelFor(score float64) string {
	switch {
	case score > 70:
		return "high"
	case score > 40:
		return "medium"
	default:
		return "low"
	}
}

// Recommendation is one actionable suggestion in a behavior analysis.
type Recommendation struct {
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// CancellationPatterns is the summary block inside a behavior analysis.
type CancellationPatterns struct {
	UserID              uuid.UUID `json:"user_id"`
	RecentCancellations int       `json:"recent_cancellations"`
	AvgLeadTime         float64   `json:"avg_lead_time"`
	CancellationRatio   float64   `json:"cancellation_ratio"`
	RiskLevel           string    `json:"risk_level"`
}

// BehaviorAnalysis is the holistic per-user fraud analysis returned to admins.
type BehaviorAnalysis struct {
	UserProfile          *UserFraudProfile        `json:"user_profile"`
	CancellationPatterns CancellationPatterns     `json:"cancellation_patterns"`
	HotelComparison      *PatternComparisonResult `json:"hotel_comparison"`
	Recommendations      []Recommendation         `json:"recommendations"`
}
