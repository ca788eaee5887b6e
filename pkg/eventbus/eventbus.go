package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/certhq/certify/pkg/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event is the envelope published on the bus. Data holds the type-specific
// payload as raw JSON.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Handler processes a single event. Returning an error leaves the message
// un-acked for NATS to redeliver.
type Handler func(ctx context.Context, event *Event) error

// Bus wraps a NATS connection with JSON encoding and queue-group subscriptions
type Bus struct {
	conn *nats.Conn
}

// Connect establishes a NATS connection with sane reconnect defaults
func Connect(url string) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}

	return &Bus{conn: conn}, nil
}

// Publish serializes the payload and publishes it under the given subject
func (b *Bus) Publish(_ context.Context, subject, eventType, eventID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	event := Event{
		ID:         eventID,
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	return b.conn.Publish(subject, raw)
}

// Subscribe registers a queue-group subscription for the given subject
func (b *Bus) Subscribe(_ context.Context, subject, queue string, handler Handler) error {
	_, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("failed to decode event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}

		if err := handler(context.Background(), &event); err != nil {
			logger.Error("event handler failed",
				zap.String("subject", msg.Subject),
				zap.String("type", event.Type),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	return nil
}

// Close drains and closes the underlying connection
func (b *Bus) Close() {
	if b.conn != nil {
		_ = b.conn.Drain()
	}
}
