package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReceivedSpans counts spans accepted at the receive boundary.
	ReceivedSpans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_spans_received_total",
		Help: "Spans accepted by the collector.",
	})

	// ReceivedMetricPoints counts metric points accepted at the receive
	// boundary.
	ReceivedMetricPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_metric_points_received_total",
		Help: "Metric points accepted by the collector.",
	})

	// RefusedItems counts items refused by the memory limiter.
	RefusedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_items_refused_total",
		Help: "Telemetry items refused because the memory ceiling was reached, by signal.",
	},
		[]string{"signal"})

	// ExportedBatches counts batches delivered to a sink.
	ExportedBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_batches_exported_total",
		Help: "Batches successfully delivered, by exporter.",
	},
		[]string{"exporter"})

	// ExportFailedBatches counts batches abandoned after exhausting retries.
	ExportFailedBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_export_failures_total",
		Help: "Batches dropped after the retry budget was exhausted, by exporter.",
	},
		[]string{"exporter"})

	// QueueDroppedBatches counts batches shed on a full exporter queue.
	QueueDroppedBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_batches_dropped_total",
		Help: "Batches dropped because an exporter queue was full, by exporter.",
	},
		[]string{"exporter"})
)
