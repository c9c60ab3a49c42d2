package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	OrderPlaced        = "order.placed"
	PaymentSucceeded   = "payment.succeeded"
	OrderStatusChanged = "order.status_changed"
)

// Event is the envelope published for order lifecycle changes.
type Event struct {
	Type            string    `json:"type"`
	OrderID         string    `json:"order_id"`
	CustomerID      string    `json:"customer_id"`
	Status          string    `json:"status,omitempty"`
	TotalCents      int64     `json:"total_cents"`
	StripeSessionID string    `json:"stripe_session_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Publisher delivers a keyed payload to the event bus.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Emitter marshals events and publishes them best effort. Failures are
// logged and swallowed.
type Emitter struct {
	publisher Publisher
	logger    *zap.Logger
	timeout   time.Duration
}

func NewEmitter(publisher Publisher, logger *zap.Logger) *Emitter {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Emitter{publisher: publisher, logger: logger, timeout: 5 * time.Second}
}

func (e *Emitter) Emit(ctx context.Context, evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		e.logger.Error("Failed to marshal event", zap.String("type", evt.Type), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.publisher.Publish(ctx, evt.OrderID, payload); err != nil {
		e.logger.Warn("Failed to publish event",
			zap.String("type", evt.Type),
			zap.String("order_id", evt.OrderID),
			zap.Error(err),
		)
		return
	}
	e.logger.Debug("Event published", zap.String("type", evt.Type), zap.String("order_id", evt.OrderID))
}

func (e *Emitter) Close() error {
	return e.publisher.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }
