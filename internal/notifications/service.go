package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/pkg/eventbus"
	"github.com/harborcrew/boatmarket/pkg/logger"
)

// Service manages in-app fraud warnings for boat owners. When an event bus
// is configured, warnings are published and materialized by the subscriber;
// otherwise they are written directly.
type Service struct {
	repo Repository
	bus  EventPublisher
}

func NewService(repo Repository, bus EventPublisher) *Service {
	return &Service{repo: repo, bus: bus}
}

// NotifySuspiciousCancellation informs the boat owner about a flagged
// cancellation on their listing.
func (s *Service) NotifySuspiciousCancellation(ctx context.Context, data eventbus.CancellationFlaggedData) error {
	if s.bus != nil {
		if err := s.bus.Publish(ctx, eventbus.SubjectFraud, eventbus.EventCancellationFlagged, data); err != nil {
			return fmt.Errorf("publish cancellation flagged event: %w", err)
		}
		return nil
	}
	return s.CreateFraudWarning(ctx, data)
}

// CreateFraudWarning resolves the boat owner and stores the warning.
func (s *Service) CreateFraudWarning(ctx context.Context, data eventbus.CancellationFlaggedData) error {
	ownerID, err := s.repo.GetBoatOwner(ctx, data.BoatID)
	if err != nil {
		return fmt.Errorf("resolve boat owner: %w", err)
	}

	notification := &Notification{
		ID:      uuid.New(),
		UserID:  ownerID,
		Type:    TypeFraudWarning,
		Title:   "Suspicious cancellation detected",
		Message: fmt.Sprintf("A booking on your boat was cancelled and flagged as suspicious: %s", data.Reason),
		Data: map[string]interface{}{
			"booking_id":       data.BookingID.String(),
			"boat_id":          data.BoatID.String(),
			"cancellation_id":  data.CancellationID.String(),
			"fraud_score":      data.FraudScore,
			"similarity_score": data.SimilarityScore,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("store fraud warning: %w", err)
	}

	logger.Info("fraud warning created for boat owner",
		zap.String("owner_id", ownerID.String()),
		zap.String("booking_id", data.BookingID.String()),
		zap.Float64("fraud_score", data.FraudScore))
	return nil
}

// GetOwnerFraudWarnings lists an owner's fraud warnings, newest first.
func (s *Service) GetOwnerFraudWarnings(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetOwnerNotifications(ctx, ownerID, TypeFraudWarning, limit, offset)
}

// MarkAsRead marks a notification as read.
func (s *Service) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkNotificationAsRead(ctx, id)
}
