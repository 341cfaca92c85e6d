package exporter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusExporterSums(t *testing.T) {
	t.Run("Serves a cumulative monotonic sum as a counter", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			sumPoint("cart", "cart_requests_total", "/api/cart", 42, true, true),
		})
		assert.NoError(t, err)

		expected := `
# HELP cart_requests_total Requests served by the service.
# TYPE cart_requests_total counter
cart_requests_total{http_route="/api/cart",service_name="cart"} 42
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})

	t.Run("Replaces the stored value on each cumulative report", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			sumPoint("cart", "cart_requests_total", "/api/cart", 42, true, true),
			sumPoint("cart", "cart_requests_total", "/api/cart", 57, true, true),
		})
		assert.NoError(t, err)

		expected := `
# HELP cart_requests_total Requests served by the service.
# TYPE cart_requests_total counter
cart_requests_total{http_route="/api/cart",service_name="cart"} 57
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})

	t.Run("Adds delta sums into a running total", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			sumPoint("cart", "cart_requests_total", "/api/cart", 2, true, false),
			sumPoint("cart", "cart_requests_total", "/api/cart", 3, true, false),
		})
		assert.NoError(t, err)

		expected := `
# HELP cart_requests_total Requests served by the service.
# TYPE cart_requests_total counter
cart_requests_total{http_route="/api/cart",service_name="cart"} 5
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})

	t.Run("Serves a non monotonic sum as a gauge", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			sumPoint("cart", "cart_items_total", "/api/cart", 3, false, true),
			sumPoint("cart", "cart_items_total", "/api/cart", 1, false, true),
		})
		assert.NoError(t, err)

		expected := `
# HELP cart_items_total Requests served by the service.
# TYPE cart_items_total gauge
cart_items_total{http_route="/api/cart",service_name="cart"} 1
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})

	t.Run("Keeps series with different attribute values apart", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			sumPoint("cart", "cart_requests_total", "/api/cart", 5, true, true),
			sumPoint("cart", "cart_requests_total", "/api/products", 7, true, true),
		})
		assert.NoError(t, err)

		expected := `
# HELP cart_requests_total Requests served by the service.
# TYPE cart_requests_total counter
cart_requests_total{http_route="/api/cart",service_name="cart"} 5
cart_requests_total{http_route="/api/products",service_name="cart"} 7
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})
}

func TestPrometheusExporterHistograms(t *testing.T) {
	t.Run("Accumulates delta histograms into a cumulative distribution", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			histogramPoint("productcatalog", 4, 2.5, []uint64{2, 1, 0, 1}, false),
			histogramPoint("productcatalog", 2, 0.25, []uint64{2, 0, 0, 0}, false),
		})
		assert.NoError(t, err)

		expected := `
# HELP productcatalog_request_duration_seconds Latency of requests served by the service.
# TYPE productcatalog_request_duration_seconds histogram
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="0.1"} 4
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="0.5"} 5
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="1"} 5
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="+Inf"} 6
productcatalog_request_duration_seconds_sum{service_name="productcatalog"} 2.75
productcatalog_request_duration_seconds_count{service_name="productcatalog"} 6
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})

	t.Run("Replaces the distribution on a cumulative report", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			histogramPoint("productcatalog", 4, 2.5, []uint64{2, 1, 0, 1}, false),
			histogramPoint("productcatalog", 10, 5, []uint64{1, 2, 3, 4}, true),
		})
		assert.NoError(t, err)

		expected := `
# HELP productcatalog_request_duration_seconds Latency of requests served by the service.
# TYPE productcatalog_request_duration_seconds histogram
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="0.1"} 1
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="0.5"} 3
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="1"} 6
productcatalog_request_duration_seconds_bucket{service_name="productcatalog",le="+Inf"} 10
productcatalog_request_duration_seconds_sum{service_name="productcatalog"} 5
productcatalog_request_duration_seconds_count{service_name="productcatalog"} 10
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})
}

func TestPrometheusExporterSanitization(t *testing.T) {
	t.Run("Rewrites attribute keys into valid label names", func(t *testing.T) {
		exporter := NewPrometheusExporter()

		err := exporter.ExportPoints(context.Background(), []model.MetricPoint{
			{
				ServiceName: "frontend",
				Name:        "frontend_requests_total",
				Description: "Requests served by the service.",
				Kind:        model.KindSum,
				Monotonic:   true,
				Cumulative:  true,
				Value:       1,
				Attributes:  map[string]string{"http.status_code": "200"},
				Timestamp:   time.Now(),
			},
		})
		assert.NoError(t, err)

		expected := `
# HELP frontend_requests_total Requests served by the service.
# TYPE frontend_requests_total counter
frontend_requests_total{http_status_code="200",service_name="frontend"} 1
`
		assert.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected)))
	})
}

func sumPoint(
	serviceName string,
	name string,
	route string,
	value float64,
	monotonic bool,
	cumulative bool,
) model.MetricPoint {
	return model.MetricPoint{
		ServiceName: serviceName,
		Name:        name,
		Description: "Requests served by the service.",
		Kind:        model.KindSum,
		Monotonic:   monotonic,
		Cumulative:  cumulative,
		Value:       value,
		Attributes:  map[string]string{"http.route": route},
		Timestamp:   time.Now(),
	}
}

func histogramPoint(
	serviceName string,
	count uint64,
	sum float64,
	bucketCounts []uint64,
	cumulative bool,
) model.MetricPoint {
	return model.MetricPoint{
		ServiceName:  serviceName,
		Name:         serviceName + "_request_duration_seconds",
		Description:  "Latency of requests served by the service.",
		Kind:         model.KindHistogram,
		Cumulative:   cumulative,
		Count:        count,
		Sum:          sum,
		Bounds:       []float64{0.1, 0.5, 1},
		BucketCounts: bucketCounts,
		Attributes:   map[string]string{},
		Timestamp:    time.Now(),
	}
}
