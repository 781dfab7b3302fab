package contentacquirer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the content-acquirer. Registered once at package
// initialization on the default registry.
var (
	metricBatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contentpipe",
		Subsystem: "acquirer",
		Name:      "batches_total",
		Help:      "Acquisition batches processed.",
	})

	metricUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contentpipe",
		Subsystem: "acquirer",
		Name:      "units_total",
		Help:      "Content units produced, by origin.",
	}, []string{"origin"}) // fetched | generated

	metricChunksPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contentpipe",
		Subsystem: "acquirer",
		Name:      "chunks_published_total",
		Help:      "Content unit chunks published to the output stream.",
	})

	metricErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contentpipe",
		Subsystem: "acquirer",
		Name:      "errors_total",
		Help:      "Message handling errors.",
	})
)
