package server

import (
	"context"
	"testing"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/stretchr/testify/assert"
	protoMetrics "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	metricsv1 "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMetricsServiceServerExport(t *testing.T) {
	t.Run("Decodes cumulative sum points with their monotonicity", func(t *testing.T) {
		consumer := newConsumerStub()
		server := NewMetricsServiceServerImpl(zap.NewNop(), consumer)

		pointTime := time.Date(2025, 6, 1, 12, 0, 5, 0, time.UTC)
		request := metricsExportRequest("cart", &metricsv1.Metric{
			Name:        "cart_requests_total",
			Unit:        "1",
			Description: "Requests served by the cart service.",
			Data: &metricsv1.Metric_Sum{
				Sum: &metricsv1.Sum{
					AggregationTemporality: metricsv1.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE,
					IsMonotonic:            true,
					DataPoints: []*metricsv1.NumberDataPoint{
						{
							Attributes:   []*commonv1.KeyValue{stringAttribute("http.route", "/api/cart")},
							TimeUnixNano: uint64(pointTime.UnixNano()),
							Value:        &metricsv1.NumberDataPoint_AsDouble{AsDouble: 42},
						},
					},
				},
			},
		})

		_, err := server.Export(context.Background(), request)
		assert.NoError(t, err)

		points := consumer.consumedPoints()
		assert.Len(t, points, 1)
		point := points[0]
		assert.Equal(t, "cart", point.ServiceName)
		assert.Equal(t, "cart_requests_total", point.Name)
		assert.Equal(t, model.KindSum, point.Kind)
		assert.True(t, point.Monotonic)
		assert.True(t, point.Cumulative)
		assert.Equal(t, 42.0, point.Value)
		assert.Equal(t, "/api/cart", point.Attributes["http.route"])
		assert.True(t, point.Timestamp.Equal(pointTime))
	})

	t.Run("Decodes integer sum values as floats", func(t *testing.T) {
		consumer := newConsumerStub()
		server := NewMetricsServiceServerImpl(zap.NewNop(), consumer)

		request := metricsExportRequest("frontend", &metricsv1.Metric{
			Name: "frontend_requests_total",
			Data: &metricsv1.Metric_Sum{
				Sum: &metricsv1.Sum{
					AggregationTemporality: metricsv1.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE,
					IsMonotonic:            true,
					DataPoints: []*metricsv1.NumberDataPoint{
						{Value: &metricsv1.NumberDataPoint_AsInt{AsInt: 7}},
					},
				},
			},
		})

		_, err := server.Export(context.Background(), request)
		assert.NoError(t, err)

		points := consumer.consumedPoints()
		assert.Len(t, points, 1)
		assert.Equal(t, 7.0, points[0].Value)
	})

	t.Run("Normalizes gauges to non monotonic cumulative sums", func(t *testing.T) {
		consumer := newConsumerStub()
		server := NewMetricsServiceServerImpl(zap.NewNop(), consumer)

		request := metricsExportRequest("cart", &metricsv1.Metric{
			Name: "cart_items_total",
			Data: &metricsv1.Metric_Gauge{
				Gauge: &metricsv1.Gauge{
					DataPoints: []*metricsv1.NumberDataPoint{
						{Value: &metricsv1.NumberDataPoint_AsDouble{AsDouble: 3}},
					},
				},
			},
		})

		_, err := server.Export(context.Background(), request)
		assert.NoError(t, err)

		points := consumer.consumedPoints()
		assert.Len(t, points, 1)
		assert.Equal(t, model.KindSum, points[0].Kind)
		assert.False(t, points[0].Monotonic)
		assert.True(t, points[0].Cumulative)
		assert.Equal(t, 3.0, points[0].Value)
	})

	t.Run("Decodes delta histogram points with bounds and buckets", func(t *testing.T) {
		consumer := newConsumerStub()
		server := NewMetricsServiceServerImpl(zap.NewNop(), consumer)

		sum := 2.45
		request := metricsExportRequest("productcatalog", &metricsv1.Metric{
			Name: "productcatalog_request_duration_seconds",
			Unit: "s",
			Data: &metricsv1.Metric_Histogram{
				Histogram: &metricsv1.Histogram{
					AggregationTemporality: metricsv1.AggregationTemporality_AGGREGATION_TEMPORALITY_DELTA,
					DataPoints: []*metricsv1.HistogramDataPoint{
						{
							Count:          4,
							Sum:            &sum,
							ExplicitBounds: []float64{0.1, 0.5, 1},
							BucketCounts:   []uint64{2, 1, 0, 1},
						},
					},
				},
			},
		})

		_, err := server.Export(context.Background(), request)
		assert.NoError(t, err)

		points := consumer.consumedPoints()
		assert.Len(t, points, 1)
		point := points[0]
		assert.Equal(t, model.KindHistogram, point.Kind)
		assert.False(t, point.Cumulative)
		assert.Equal(t, uint64(4), point.Count)
		assert.Equal(t, 2.45, point.Sum)
		assert.Equal(t, []float64{0.1, 0.5, 1}, point.Bounds)
		assert.Equal(t, []uint64{2, 1, 0, 1}, point.BucketCounts)
	})

	t.Run("Returns ResourceExhausted when the pipeline refuses the payload", func(t *testing.T) {
		consumer := newConsumerStub()
		consumer.refuse = true
		server := NewMetricsServiceServerImpl(zap.NewNop(), consumer)

		request := metricsExportRequest("cart", &metricsv1.Metric{
			Name: "cart_requests_total",
			Data: &metricsv1.Metric_Sum{
				Sum: &metricsv1.Sum{
					DataPoints: []*metricsv1.NumberDataPoint{
						{Value: &metricsv1.NumberDataPoint_AsDouble{AsDouble: 1}},
					},
				},
			},
		})

		_, err := server.Export(context.Background(), request)
		assert.Error(t, err)
		assert.Equal(t, codes.ResourceExhausted, status.Code(err))
		assert.Len(t, consumer.consumedPoints(), 0)
	})
}

func metricsExportRequest(serviceName string, metrics ...*metricsv1.Metric) *protoMetrics.ExportMetricsServiceRequest {
	return &protoMetrics.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricsv1.ResourceMetrics{
			{
				Resource: &resourcev1.Resource{
					Attributes: []*commonv1.KeyValue{
						stringAttribute("service.name", serviceName),
					},
				},
				ScopeMetrics: []*metricsv1.ScopeMetrics{
					{Metrics: metrics},
				},
			},
		},
	}
}
