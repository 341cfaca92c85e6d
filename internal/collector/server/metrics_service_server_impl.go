package server

import (
	"context"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/metrics"
	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/Avi18971911/Emporium/internal/collector/pipeline"
	protoMetrics "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	metricsv1 "go.opentelemetry.io/proto/otlp/metrics/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type MetricsServiceServerImpl struct {
	protoMetrics.UnimplementedMetricsServiceServer
	pipeline pipeline.TelemetryPipeline
	logger   *zap.Logger
}

func NewMetricsServiceServerImpl(
	logger *zap.Logger,
	telemetryPipeline pipeline.TelemetryPipeline,
) MetricsServiceServerImpl {
	logger.Info("Creating new MetricsServiceServerImpl")
	return MetricsServiceServerImpl{
		logger:   logger,
		pipeline: telemetryPipeline,
	}
}

// Export accepts one producer's metric payload under the same
// admit-or-refuse contract as the trace receiver.
func (mss MetricsServiceServerImpl) Export(
	ctx context.Context,
	req *protoMetrics.ExportMetricsServiceRequest,
) (*protoMetrics.ExportMetricsServiceResponse, error) {
	var typedPoints []model.MetricPoint
	for _, resourceMetric := range req.ResourceMetrics {
		serviceName := getMetricServiceName(resourceMetric)
		if serviceName == "Never Assigned" {
			mss.logger.Warn("Service name not found in resource metric")
		}
		typedPoints = append(typedPoints, getTypedPoints(resourceMetric, serviceName)...)
	}

	if err := mss.pipeline.ConsumePoints(typedPoints); err != nil {
		metrics.RefusedItems.WithLabelValues("metrics").Add(float64(len(typedPoints)))
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	}
	metrics.ReceivedMetricPoints.Add(float64(len(typedPoints)))

	return &protoMetrics.ExportMetricsServiceResponse{}, nil
}

func getMetricServiceName(resourceMetric *metricsv1.ResourceMetrics) string {
	var serviceName = "Never Assigned"
	if resourceMetric.Resource == nil {
		return serviceName
	}
	for _, attr := range resourceMetric.Resource.Attributes {
		if attr.Key == "service.name" {
			serviceName = attr.Value.GetStringValue()
		}
	}
	return serviceName
}

func getTypedPoints(resourceMetric *metricsv1.ResourceMetrics, serviceName string) []model.MetricPoint {
	var typedPoints []model.MetricPoint
	for _, scopeMetric := range resourceMetric.ScopeMetrics {
		for _, metric := range scopeMetric.Metrics {
			typedPoints = append(typedPoints, getTypedMetricPoints(metric, serviceName)...)
		}
	}
	return typedPoints
}

func getTypedMetricPoints(metric *metricsv1.Metric, serviceName string) []model.MetricPoint {
	switch data := metric.Data.(type) {
	case *metricsv1.Metric_Sum:
		return getSumPoints(metric, data.Sum, serviceName)
	case *metricsv1.Metric_Gauge:
		return getGaugePoints(metric, data.Gauge, serviceName)
	case *metricsv1.Metric_Histogram:
		return getHistogramPoints(metric, data.Histogram, serviceName)
	default:
		return nil
	}
}

func getSumPoints(metric *metricsv1.Metric, sum *metricsv1.Sum, serviceName string) []model.MetricPoint {
	cumulative := sum.AggregationTemporality == metricsv1.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE
	points := make([]model.MetricPoint, len(sum.DataPoints))
	for i, dataPoint := range sum.DataPoints {
		points[i] = model.MetricPoint{
			ServiceName: serviceName,
			Name:        metric.Name,
			Unit:        metric.Unit,
			Description: metric.Description,
			Kind:        model.KindSum,
			Monotonic:   sum.IsMonotonic,
			Cumulative:  cumulative,
			Value:       getNumberValue(dataPoint),
			Attributes:  getPointAttributes(dataPoint.Attributes),
			StartTime:   time.Unix(0, int64(dataPoint.StartTimeUnixNano)),
			Timestamp:   time.Unix(0, int64(dataPoint.TimeUnixNano)),
		}
	}
	return points
}

// getGaugePoints treats gauges as non-monotonic last-value sums so the
// scrape side renders them as plain gauges.
func getGaugePoints(metric *metricsv1.Metric, gauge *metricsv1.Gauge, serviceName string) []model.MetricPoint {
	points := make([]model.MetricPoint, len(gauge.DataPoints))
	for i, dataPoint := range gauge.DataPoints {
		points[i] = model.MetricPoint{
			ServiceName: serviceName,
			Name:        metric.Name,
			Unit:        metric.Unit,
			Description: metric.Description,
			Kind:        model.KindSum,
			Monotonic:   false,
			Cumulative:  true,
			Value:       getNumberValue(dataPoint),
			Attributes:  getPointAttributes(dataPoint.Attributes),
			StartTime:   time.Unix(0, int64(dataPoint.StartTimeUnixNano)),
			Timestamp:   time.Unix(0, int64(dataPoint.TimeUnixNano)),
		}
	}
	return points
}

func getHistogramPoints(
	metric *metricsv1.Metric,
	histogram *metricsv1.Histogram,
	serviceName string,
) []model.MetricPoint {
	cumulative := histogram.AggregationTemporality == metricsv1.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE
	points := make([]model.MetricPoint, len(histogram.DataPoints))
	for i, dataPoint := range histogram.DataPoints {
		var sum float64
		if dataPoint.Sum != nil {
			sum = *dataPoint.Sum
		}
		points[i] = model.MetricPoint{
			ServiceName:  serviceName,
			Name:         metric.Name,
			Unit:         metric.Unit,
			Description:  metric.Description,
			Kind:         model.KindHistogram,
			Cumulative:   cumulative,
			Count:        dataPoint.Count,
			Sum:          sum,
			Bounds:       dataPoint.ExplicitBounds,
			BucketCounts: dataPoint.BucketCounts,
			Attributes:   getPointAttributes(dataPoint.Attributes),
			StartTime:    time.Unix(0, int64(dataPoint.StartTimeUnixNano)),
			Timestamp:    time.Unix(0, int64(dataPoint.TimeUnixNano)),
		}
	}
	return points
}

func getNumberValue(dataPoint *metricsv1.NumberDataPoint) float64 {
	switch value := dataPoint.Value.(type) {
	case *metricsv1.NumberDataPoint_AsDouble:
		return value.AsDouble
	case *metricsv1.NumberDataPoint_AsInt:
		return float64(value.AsInt)
	default:
		return 0
	}
}

func getPointAttributes(attributes []*commonv1.KeyValue) map[string]string {
	typedAttributes := make(map[string]string)
	for _, attribute := range attributes {
		typedAttributes[attribute.Key] = attribute.Value.GetStringValue()
	}
	return typedAttributes
}
