package fraud

// FeatureVector is the flat numeric input consumed by both the rule-based
// scorer and the remote model. Missing history yields zero values, never an
// error; the scorers are defined over the full zero-inclusive domain.
type FeatureVector struct {
	UserID string `json:"userId,omitempty"`

	// From the most recent cancellation, zero when there is none.
	LeadTime            float64 `json:"leadTime"`
	TimeSinceBooking    float64 `json:"timeSinceBooking"`
	TimeBeforeDeparture float64 `json:"timeBeforeDeparture"`
	Adults              float64 `json:"adultsCount"`
	Children            float64 `json:"childrenCount"`
	TotalAmount         float64 `json:"totalAmount"`

	// From the user profile, zero when no profile exists.
	CancellationRatio               float64 `json:"cancellationRatio"`
	TotalCancellations              float64 `json:"totalCancellations"`
	TotalBookings                   float64 `json:"totalBookings"`
	CancellationsLast24Hours        float64 `json:"cancellationsLast24Hours"`
	AverageTimeBetweenCancellations float64 `json:"averageTimeBetweenCancellations"`
	DistinctBoatsCancelled          float64 `json:"distinctBoatsCancelled"`
	AverageLeadTime                 float64 `json:"averageLeadTime"`
}

// ExtractFeatures builds a feature vector from a user's profile and their
// cancellation history, most recent first. Either input may be nil or empty.
func ExtractFeatures(profile *UserFraudProfile, cancellations []*CancellationRecord) FeatureVector {
	var features FeatureVector

	if profile != nil {
		features.UserID = profile.UserID.String()
		features.TotalCancellations = float64(profile.TotalCancellations)
		features.TotalBookings = float64(profile.TotalBookings)
		features.CancellationsLast24Hours = float64(profile.CancellationsLast24Hours)
		features.DistinctBoatsCancelled = float64(profile.DistinctBoatsCancelled)
		features.AverageLeadTime = profile.AverageLeadTime
		if profile.AverageTimeBetweenCancellations != nil {
			features.AverageTimeBetweenCancellations = *profile.AverageTimeBetweenCancellations
		}
		if profile.TotalBookings > 0 {
			features.CancellationRatio = float64(profile.TotalCancellations) / float64(profile.TotalBookings)
		}
	}

	if len(cancellations) > 0 {
		latest := cancellations[0]
		features.LeadTime = latest.OriginalBooking.LeadTime
		features.TimeSinceBooking = latest.TimeSinceBooking
		features.TimeBeforeDeparture = latest.TimeBeforeDeparture
		features.Adults = float64(latest.OriginalBooking.Adults)
		features.Children = float64(latest.OriginalBooking.Children)
		features.TotalAmount = latest.OriginalBooking.TotalAmount
	}

	return features
}
