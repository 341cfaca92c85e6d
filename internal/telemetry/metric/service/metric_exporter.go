package service

import (
	"context"

	"github.com/Avi18971911/Emporium/internal/telemetry/metric/model"
	"github.com/Avi18971911/Emporium/internal/telemetry/resource"
	protoMetrics "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	metricsv1 "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/grpc"
)

// MetricExporter delivers collected instrument snapshots to a telemetry
// backend.
type MetricExporter interface {
	Export(ctx context.Context, snapshots []model.InstrumentSnapshot) error
	Shutdown(ctx context.Context) error
}

// OTLPMetricExporter ships metric snapshots to a collector over OTLP gRPC,
// sharing the caller-owned connection with the span exporter.
type OTLPMetricExporter struct {
	client       protoMetrics.MetricsServiceClient
	res          resource.Resource
	scopeName    string
	scopeVersion string
}

func NewOTLPMetricExporter(
	conn *grpc.ClientConn,
	res resource.Resource,
	scopeName string,
	scopeVersion string,
) *OTLPMetricExporter {
	return &OTLPMetricExporter{
		client:       protoMetrics.NewMetricsServiceClient(conn),
		res:          res,
		scopeName:    scopeName,
		scopeVersion: scopeVersion,
	}
}

func (e *OTLPMetricExporter) Export(ctx context.Context, snapshots []model.InstrumentSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	_, err := e.client.Export(ctx, e.buildRequest(snapshots))
	return err
}

func (e *OTLPMetricExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (e *OTLPMetricExporter) buildRequest(
	snapshots []model.InstrumentSnapshot,
) *protoMetrics.ExportMetricsServiceRequest {
	metrics := make([]*metricsv1.Metric, len(snapshots))
	for i, snapshot := range snapshots {
		metrics[i] = toProtoMetric(snapshot)
	}
	return &protoMetrics.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricsv1.ResourceMetrics{
			{
				Resource: &resourcev1.Resource{
					Attributes: toProtoAttributeList(e.res.Attributes()),
				},
				ScopeMetrics: []*metricsv1.ScopeMetrics{
					{
						Scope: &commonv1.InstrumentationScope{
							Name:    e.scopeName,
							Version: e.scopeVersion,
						},
						Metrics: metrics,
					},
				},
			},
		},
	}
}

func toProtoMetric(snapshot model.InstrumentSnapshot) *metricsv1.Metric {
	metric := &metricsv1.Metric{
		Name:        snapshot.Name,
		Unit:        snapshot.Unit,
		Description: snapshot.Description,
	}
	switch snapshot.Kind {
	case model.KindHistogram:
		metric.Data = &metricsv1.Metric_Histogram{
			Histogram: &metricsv1.Histogram{
				AggregationTemporality: toProtoTemporality(snapshot.Temporality),
				DataPoints:             toProtoHistogramPoints(snapshot.Histograms),
			},
		}
	default:
		metric.Data = &metricsv1.Metric_Sum{
			Sum: &metricsv1.Sum{
				AggregationTemporality: toProtoTemporality(snapshot.Temporality),
				IsMonotonic:            snapshot.Monotonic,
				DataPoints:             toProtoNumberPoints(snapshot.Numbers),
			},
		}
	}
	return metric
}

func toProtoTemporality(temporality model.Temporality) metricsv1.AggregationTemporality {
	if temporality == model.TemporalityDelta {
		return metricsv1.AggregationTemporality_AGGREGATION_TEMPORALITY_DELTA
	}
	return metricsv1.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE
}

func toProtoNumberPoints(points []model.NumberPoint) []*metricsv1.NumberDataPoint {
	protoPoints := make([]*metricsv1.NumberDataPoint, len(points))
	for i, point := range points {
		protoPoints[i] = &metricsv1.NumberDataPoint{
			Attributes:        toProtoAttributeList(point.Attributes),
			StartTimeUnixNano: uint64(point.StartTime.UnixNano()),
			TimeUnixNano:      uint64(point.Time.UnixNano()),
			Value:             &metricsv1.NumberDataPoint_AsDouble{AsDouble: point.Value},
		}
	}
	return protoPoints
}

func toProtoHistogramPoints(points []model.HistogramPoint) []*metricsv1.HistogramDataPoint {
	protoPoints := make([]*metricsv1.HistogramDataPoint, len(points))
	for i, point := range points {
		sum := point.Sum
		protoPoints[i] = &metricsv1.HistogramDataPoint{
			Attributes:        toProtoAttributeList(point.Attributes),
			StartTimeUnixNano: uint64(point.StartTime.UnixNano()),
			TimeUnixNano:      uint64(point.Time.UnixNano()),
			Count:             point.Count,
			Sum:               &sum,
			ExplicitBounds:    point.Bounds,
			BucketCounts:      point.BucketCounts,
		}
	}
	return protoPoints
}

func toProtoAttributeList(attributes map[string]string) []*commonv1.KeyValue {
	keyValues := make([]*commonv1.KeyValue, 0, len(attributes))
	for key, value := range attributes {
		keyValues = append(keyValues, &commonv1.KeyValue{
			Key: key,
			Value: &commonv1.AnyValue{
				Value: &commonv1.AnyValue_StringValue{StringValue: value},
			},
		})
	}
	return keyValues
}
