package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harborcrew/boatmarket/pkg/eventbus"
)

// EventHandler materializes fraud events from the bus into notifications.
type EventHandler struct {
	service *Service
}

func NewEventHandler(service *Service) *EventHandler {
	return &EventHandler{service: service}
}

// Subscribe registers the handler on the fraud subject.
func (h *EventHandler) Subscribe(ctx context.Context, bus *eventbus.Bus) error {
	return bus.Subscribe(ctx, eventbus.SubjectFraud, "notifications", h.handle)
}

func (h *EventHandler) handle(ctx context.Context, event *eventbus.Event) error {
	switch event.Type {
	case eventbus.EventCancellationFlagged:
		var data eventbus.CancellationFlaggedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("decode cancellation flagged event: %w", err)
		}
		return h.service.CreateFraudWarning(ctx, data)
	default:
		return nil
	}
}
