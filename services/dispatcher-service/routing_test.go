package main

import (
	"context"
	"encoding/json"
	"testing"

	"lapordesa/services/report-service/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRoute(t *testing.T) {
	cases := []struct {
		name string
		ev   models.ReportEvent
		want string
	}{
		{"ai category", models.ReportEvent{AICategory: "Infrastruktur", Category: "Sosial"}, "Kaur Pembangunan"},
		{"case insensitive", models.ReportEvent{AICategory: " keamanan "}, "Linmas"},
		{"fallback uses citizen category", models.ReportEvent{AICategory: "Lainnya", Category: "Kesehatan"}, "Kasi Kesejahteraan"},
		{"missing ai category", models.ReportEvent{Category: "Pelayanan"}, "Kasi Pelayanan"},
		{"unknown", models.ReportEvent{AICategory: "Lainnya", Category: "Hewan liar"}, DefaultDepartment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, route(tc.ev))
		})
	}
}

func TestRunRedactsAnonymousReporter(t *testing.T) {
	body, err := json.Marshal(models.ReportEvent{
		ID: "r1", ReportNumber: "LPR-1234", AICategory: "Lingkungan",
		IsAnonymous: true, ReporterID: "w-1", ReporterName: "Siti",
	})
	require.NoError(t, err)

	msgs := make(chan amqp.Delivery, 2)
	msgs <- amqp.Delivery{Body: []byte("not json")}
	msgs <- amqp.Delivery{Body: body}
	close(msgs)

	var got []Assignment
	run(context.Background(), msgs, zap.NewNop(), func(a Assignment) { got = append(got, a) })

	require.Len(t, got, 1)
	assert.Equal(t, "LPR-1234", got[0].ReportNumber)
	assert.Equal(t, "Kaur Pembangunan", got[0].Department)
	assert.Equal(t, models.AnonymousReporterName, got[0].Reporter)
}
