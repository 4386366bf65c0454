package eventbus

import (
	"github.com/google/uuid"
)

// Subjects and event types for the fraud domain.
const (
	SubjectFraud = "fraud.cancellation"

	EventCancellationFlagged = "fraud.cancellation.flagged"
)

// CancellationFlaggedData is published when a cancellation is flagged as suspicious.
type CancellationFlaggedData struct {
	UserID          uuid.UUID `json:"user_id"`
	BookingID       uuid.UUID `json:"booking_id"`
	BoatID          uuid.UUID `json:"boat_id"`
	CancellationID  uuid.UUID `json:"cancellation_id"`
	FraudScore      float64   `json:"fraud_score"`
	SimilarityScore int       `json:"similarity_score"`
	Reason          string    `json:"reason"`
}
