package exporter

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter is the metrics sink: it folds received metric points
// into the latest per-series state and serves that state to the metrics
// backend through the pull-based scrape endpoint. Cumulative sums replace
// the stored value; delta histograms accumulate into a cumulative
// distribution.
type PrometheusExporter struct {
	mu     sync.RWMutex
	series map[string]*seriesState
}

type seriesState struct {
	name        string
	help        string
	kind        model.MetricKind
	monotonic   bool
	labelNames  []string
	labelValues []string

	value float64

	count        uint64
	sum          float64
	bounds       []float64
	bucketCounts []uint64
}

func NewPrometheusExporter() *PrometheusExporter {
	return &PrometheusExporter{series: make(map[string]*seriesState)}
}

// ExportPoints merges a batch into the scrapeable state. It is the
// ExportFunc drained by this sink's worker.
func (e *PrometheusExporter) ExportPoints(_ context.Context, points []model.MetricPoint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, point := range points {
		e.merge(point)
	}
	return nil
}

func (e *PrometheusExporter) merge(point model.MetricPoint) {
	labelNames, labelValues := seriesLabels(point)
	key := point.Name +
		"\x00" + strings.Join(labelNames, "\x01") +
		"\x00" + strings.Join(labelValues, "\x01")
	state, ok := e.series[key]
	if !ok {
		state = &seriesState{
			name:        sanitizeMetricName(point.Name),
			help:        point.Description,
			kind:        point.Kind,
			monotonic:   point.Monotonic,
			labelNames:  labelNames,
			labelValues: labelValues,
		}
		e.series[key] = state
	}
	switch point.Kind {
	case model.KindHistogram:
		if len(state.bucketCounts) != len(point.BucketCounts) {
			state.bounds = point.Bounds
			state.bucketCounts = make([]uint64, len(point.BucketCounts))
			state.count = 0
			state.sum = 0
		}
		if point.Cumulative {
			copy(state.bucketCounts, point.BucketCounts)
			state.count = point.Count
			state.sum = point.Sum
			return
		}
		for i, bucketCount := range point.BucketCounts {
			state.bucketCounts[i] += bucketCount
		}
		state.count += point.Count
		state.sum += point.Sum
	default:
		if point.Cumulative {
			state.value = point.Value
			return
		}
		state.value += point.Value
	}
}

// Describe intentionally sends nothing: the series set is dynamic, so the
// exporter registers as an unchecked collector.
func (e *PrometheusExporter) Describe(_ chan<- *prometheus.Desc) {}

func (e *PrometheusExporter) Collect(ch chan<- prometheus.Metric) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, state := range e.series {
		desc := prometheus.NewDesc(state.name, state.help, state.labelNames, nil)
		switch state.kind {
		case model.KindHistogram:
			ch <- prometheus.MustNewConstHistogram(
				desc, state.count, state.sum, cumulativeBuckets(state), state.labelValues...,
			)
		default:
			valueType := prometheus.GaugeValue
			if state.monotonic {
				valueType = prometheus.CounterValue
			}
			ch <- prometheus.MustNewConstMetric(desc, valueType, state.value, state.labelValues...)
		}
	}
}

func cumulativeBuckets(state *seriesState) map[float64]uint64 {
	buckets := make(map[float64]uint64, len(state.bounds))
	var running uint64
	for i, bound := range state.bounds {
		if i < len(state.bucketCounts) {
			running += state.bucketCounts[i]
		}
		buckets[bound] = running
	}
	return buckets
}

func seriesLabels(point model.MetricPoint) ([]string, []string) {
	keys := make([]string, 0, len(point.Attributes)+1)
	for key := range point.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	labelNames := make([]string, 0, len(keys)+1)
	labelValues := make([]string, 0, len(keys)+1)
	labelNames = append(labelNames, "service_name")
	labelValues = append(labelValues, point.ServiceName)
	for _, key := range keys {
		labelNames = append(labelNames, sanitizeLabelName(key))
		labelValues = append(labelValues, point.Attributes[key])
	}
	return labelNames, labelValues
}

func sanitizeMetricName(name string) string {
	return sanitizeLabelName(name)
}

func sanitizeLabelName(name string) string {
	var builder strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			builder.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			builder.WriteRune(r)
		default:
			builder.WriteByte('_')
		}
	}
	return builder.String()
}
