package lifecycle

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	dependencyClassifier = "classifier"
	dependencyPriority   = "priority"
	dependencyBlobStore  = "blob_store"
	dependencyPublisher  = "publisher"
)

var (
	fallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapordesa_fallback_total",
			Help: "Number of times a dependency failed and a fallback was used",
		},
		[]string{"dependency"},
	)
	registerOnce sync.Once
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(fallbackTotal)
	})
}
