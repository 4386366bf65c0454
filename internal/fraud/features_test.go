package fraud

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExtractFeaturesEmptyInputs(t *testing.T) {
	features := ExtractFeatures(nil, nil)

	assert.Equal(t, FeatureVector{}, features)
}

func TestExtractFeaturesProfileOnly(t *testing.T) {
	avgGap := 12.5
	profile := &UserFraudProfile{
		UserID:                          uuid.New(),
		TotalBookings:                   8,
		TotalCancellations:              4,
		CancellationsLast24Hours:        2,
		DistinctBoatsCancelled:          3,
		AverageLeadTime:                 6.5,
		AverageTimeBetweenCancellations: &avgGap,
	}

	features := ExtractFeatures(profile, nil)

	assert.Equal(t, profile.UserID.String(), features.UserID)
	assert.Equal(t, 0.5, features.CancellationRatio)
	assert.Equal(t, 2.0, features.CancellationsLast24Hours)
	assert.Equal(t, 12.5, features.AverageTimeBetweenCancellations)
	assert.Equal(t, 0.0, features.LeadTime)
}

func TestExtractFeaturesUsesMostRecentCancellation(t *testing.T) {
	cancellations := []*CancellationRecord{
		{
			TimeSinceBooking:    45,
			TimeBeforeDeparture: 16,
			OriginalBooking:     BookingSnapshot{LeadTime: 16, Adults: 3, Children: 1, TotalAmount: 420},
		},
		{
			TimeSinceBooking:    9000,
			TimeBeforeDeparture: 1,
			OriginalBooking:     BookingSnapshot{LeadTime: 1, Adults: 1},
		},
	}

	features := ExtractFeatures(nil, cancellations)

	assert.Equal(t, 16.0, features.LeadTime)
	assert.Equal(t, 45.0, features.TimeSinceBooking)
	assert.Equal(t, 3.0, features.Adults)
	assert.Equal(t, 420.0, features.TotalAmount)
}

func TestExtractFeaturesZeroBookingsAvoidsDivision(t *testing.T) {
	profile := &UserFraudProfile{
		UserID:             uuid.New(),
		TotalCancellations: 3,
	}

	features := ExtractFeatures(profile, nil)

	assert.Equal(t, 0.0, features.CancellationRatio)
	assert.Equal(t, 3.0, features.TotalCancellations)
}
