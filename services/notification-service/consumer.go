package main

import (
	"context"
	"encoding/json"

	"lapordesa/pkg/queue"
	"lapordesa/services/report-service/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const queueName = "notifications"

var subscribedKeys = []string{
	queue.KeyReportCreated,
	queue.KeyReportUpdated,
	queue.KeyNotificationCreated,
}

// decode turns a delivery into a Message, reading the report owner for
// report events.
func decode(d amqp.Delivery) (Message, error) {
	m := Message{Type: d.RoutingKey, Data: json.RawMessage(d.Body)}
	switch d.RoutingKey {
	case queue.KeyReportCreated, queue.KeyReportUpdated:
		var ev models.ReportEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return Message{}, err
		}
		if !ev.IsAnonymous {
			m.owner = ev.ReporterID
		}
	default:
		var ev models.NotificationEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return Message{}, err
		}
	}
	return m, nil
}

func consume(ctx context.Context, msgs <-chan amqp.Delivery, hub *Hub, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				logger.Warn("[WARN] Delivery channel closed")
				return
			}
			m, err := decode(d)
			if err != nil {
				logger.Warn("[WARN] Failed to parse event", zap.String("routing_key", d.RoutingKey), zap.Error(err))
				continue
			}
			eventsConsumed.WithLabelValues(d.RoutingKey).Inc()
			logger.Info("[OK] Event received", zap.String("routing_key", d.RoutingKey), zap.String("trace_id", queue.TraceID(d)))
			hub.Broadcast(m)
		}
	}
}
