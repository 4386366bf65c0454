package cancellation

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborcrew/boatmarket/internal/fraud"
	"github.com/harborcrew/boatmarket/pkg/eventbus"
)

// BookingRepository defines the booking persistence operations.
type BookingRepository interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*fraud.Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) error
}

// FraudService is the fraud surface the cancellation flow depends on.
type FraudService interface {
	RecordCancellation(ctx context.Context, record *fraud.CancellationRecord) error
	MarkCancellationSuspicious(ctx context.Context, id uuid.UUID, fraudScore float64) error
	UpdateUserProfile(ctx context.Context, userID uuid.UUID) (*fraud.UserFraudProfile, error)
	ScoreUser(ctx context.Context, userID uuid.UUID) (*fraud.FraudVerdict, error)
	CompareWithHotelPatterns(ctx context.Context, userID uuid.UUID) (*fraud.PatternComparisonResult, error)
}

// Notifier informs boat owners about suspicious cancellations.
type Notifier interface {
	NotifySuspiciousCancellation(ctx context.Context, data eventbus.CancellationFlaggedData) error
}
