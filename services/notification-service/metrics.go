package main

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lapordesa_sse_clients",
		Help: "Currently connected server-sent event clients",
	})

	eventsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lapordesa_events_consumed_total",
		Help: "Events consumed from the broker by routing key",
	}, []string{"routing_key"})

	droppedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lapordesa_sse_dropped_total",
		Help: "Events dropped because a client buffer was full",
	})

	registerOnce sync.Once
)

func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(connectedClients, eventsConsumed, droppedEvents)
	})
}
