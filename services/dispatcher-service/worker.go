package main

import (
	"context"
	"encoding/json"

	"lapordesa/pkg/queue"
	"lapordesa/services/report-service/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Assignment is one routed report.
type Assignment struct {
	ReportID     string
	ReportNumber string
	Department   string
	Reporter     string
}

func dispatch(d amqp.Delivery) (Assignment, error) {
	var ev models.ReportEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		return Assignment{}, err
	}
	ev = redact(ev)
	return Assignment{
		ReportID:     ev.ID,
		ReportNumber: ev.ReportNumber,
		Department:   route(ev),
		Reporter:     ev.ReporterName,
	}, nil
}

func run(ctx context.Context, msgs <-chan amqp.Delivery, logger *zap.Logger, out func(Assignment)) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				logger.Warn("[WARN] Delivery channel closed")
				return
			}
			a, err := dispatch(d)
			if err != nil {
				logger.Warn("[WARN] Failed to parse report event", zap.Error(err))
				continue
			}
			logger.Info("[OK] Report routed",
				zap.String("trace_id", queue.TraceID(d)),
				zap.String("report_id", a.ReportID),
				zap.String("nomor_laporan", a.ReportNumber),
				zap.String("department", a.Department),
				zap.String("reporter", a.Reporter))
			if out != nil {
				out(a)
			}
		}
	}
}
