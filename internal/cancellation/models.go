package cancellation

import (
	"github.com/google/uuid"

	"github.com/harborcrew/boatmarket/internal/fraud"
)

// CancelBookingRequest is the body for cancelling a booking.
type CancelBookingRequest struct {
	Reason  string `json:"reason" validate:"required,cancellation_reason"`
	Comment string `json:"comment" validate:"max=500"`
}

// CancellationResult is returned to the caller after a successful cancellation.
type CancellationResult struct {
	BookingID      uuid.UUID           `json:"booking_id"`
	CancellationID uuid.UUID           `json:"cancellation_id"`
	Status         string              `json:"status"`
	IsSuspicious   bool                `json:"is_suspicious"`
	Verdict        *fraud.FraudVerdict `json:"fraud_assessment,omitempty"`
}
