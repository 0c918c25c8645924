package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lapordesa/pkg/middleware"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second

	// TraceHeader carries the HTTP trace id to consumers.
	TraceHeader = "trace_id"
)

// Publisher sends JSON events to a single exchange.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	appID    string
}

func NewPublisher(ch *amqp.Channel, exchange, appID string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, appID: appID}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	msg, err := NewMessage(ctx, routingKey, payload)
	if err != nil {
		return err
	}
	msg.AppId = p.appID

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// NewMessage builds a persistent JSON message tagged with a fresh message id
// and the trace id found in ctx.
func NewMessage(ctx context.Context, routingKey string, payload interface{}) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if traceID := middleware.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers = amqp.Table{TraceHeader: traceID}
	}
	return msg, nil
}

// TraceID returns the trace id a publisher attached, if any.
func TraceID(d amqp.Delivery) string {
	v, _ := d.Headers[TraceHeader].(string)
	return v
}
