package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/pkg/logger"
)

// Event is the envelope published on the bus.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Handler processes a single event. Returning an error only logs it; the bus
// does not redeliver.
type Handler func(ctx context.Context, event *Event) error

// Bus is a thin NATS wrapper used for cross-feature domain events.
type Bus struct {
	conn *nats.Conn
}

// Connect establishes a NATS connection with sane reconnect defaults.
func Connect(url string) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return &Bus{conn: conn}, nil
}

// Publish marshals data and publishes it under the given subject/event type.
func (b *Bus) Publish(ctx context.Context, subject, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	event := &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	if err := b.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a queue subscription for a subject pattern.
func (b *Bus) Subscribe(ctx context.Context, subject, queue string, handler Handler) error {
	_, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("failed to decode event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		if err := handler(ctx, &event); err != nil {
			logger.Error("event handler failed",
				zap.String("subject", msg.Subject),
				zap.String("type", event.Type),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (b *Bus) Close() {
	if b.conn != nil {
		_ = b.conn.Drain()
	}
}
