package notifications

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for notifications.
type Repository interface {
	CreateNotification(ctx context.Context, notification *Notification) error
	GetOwnerNotifications(ctx context.Context, ownerID uuid.UUID, notifType string, limit, offset int) ([]*Notification, int64, error)
	MarkNotificationAsRead(ctx context.Context, id uuid.UUID) error
	GetBoatOwner(ctx context.Context, boatID uuid.UUID) (uuid.UUID, error)
}

// EventPublisher publishes domain events. *eventbus.Bus satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, subject, eventType string, data interface{}) error
}
