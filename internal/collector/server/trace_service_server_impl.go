package server

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/metrics"
	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/Avi18971911/Emporium/internal/collector/pipeline"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	v1 "go.opentelemetry.io/proto/otlp/trace/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type TraceServiceServerImpl struct {
	protoTrace.UnimplementedTraceServiceServer
	pipeline pipeline.TelemetryPipeline
	logger   *zap.Logger
}

func NewTraceServiceServerImpl(
	logger *zap.Logger,
	telemetryPipeline pipeline.TelemetryPipeline,
) TraceServiceServerImpl {
	logger.Info("Creating new TraceServiceServerImpl")
	return TraceServiceServerImpl{
		logger:   logger,
		pipeline: telemetryPipeline,
	}
}

// Export accepts one producer's span payload. The whole payload is admitted
// or refused as a unit: when the pipeline's memory ceiling is reached the
// producer receives ResourceExhausted as its backpressure signal and nothing
// is buffered.
func (tss TraceServiceServerImpl) Export(
	ctx context.Context,
	req *protoTrace.ExportTraceServiceRequest,
) (*protoTrace.ExportTraceServiceResponse, error) {
	var typedSpans []model.Span
	for _, resourceSpan := range req.ResourceSpans {
		serviceName := getServiceName(resourceSpan)
		if serviceName == "Never Assigned" {
			tss.logger.Warn("Service name not found in resource span")
		}
		typedSpans = append(typedSpans, getTypedSpans(resourceSpan, serviceName)...)
	}

	if err := tss.pipeline.ConsumeSpans(typedSpans); err != nil {
		metrics.RefusedItems.WithLabelValues("traces").Add(float64(len(typedSpans)))
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	}
	metrics.ReceivedSpans.Add(float64(len(typedSpans)))

	return &protoTrace.ExportTraceServiceResponse{}, nil
}

func getServiceName(resourceSpan *v1.ResourceSpans) string {
	var serviceName = "Never Assigned"
	if resourceSpan.Resource == nil {
		return serviceName
	}
	for _, attr := range resourceSpan.Resource.Attributes {
		if attr.Key == "service.name" {
			serviceName = attr.Value.GetStringValue()
		}
	}
	return serviceName
}

func getTypedSpans(resourceSpan *v1.ResourceSpans, serviceName string) []model.Span {
	var typedSpans []model.Span
	for _, libSpan := range resourceSpan.ScopeSpans {
		for _, span := range libSpan.Spans {
			typedSpans = append(typedSpans, getTypedSpan(span, serviceName))
		}
	}
	return typedSpans
}

func getTypedSpan(span *v1.Span, serviceName string) model.Span {
	startTime := time.Unix(0, int64(span.StartTimeUnixNano))
	endTime := time.Unix(0, int64(span.EndTimeUnixNano))
	spanId := hex.EncodeToString(span.SpanId)
	parentSpanId := hex.EncodeToString(span.ParentSpanId)
	traceId := hex.EncodeToString(span.TraceId)

	return model.Span{
		Id:           spanId,
		CreatedAt:    time.Now().UTC(),
		SpanID:       spanId,
		ParentSpanID: parentSpanId,
		TraceID:      traceId,
		ServiceName:  serviceName,
		StartTime:    startTime,
		EndTime:      endTime,
		ActionName:   span.Name,
		SpanKind:     getSpanKind(span),
		Attributes:   getAttributes(span),
		Events:       getEvents(span),
		Status:       getStatus(span),
	}
}

func getEvents(span *v1.Span) []model.SpanEvent {
	events := make([]model.SpanEvent, len(span.Events))
	for i, event := range span.Events {
		eventAttributes := make(map[string]string)
		for _, attribute := range event.Attributes {
			eventAttributes[attribute.Key] = attribute.Value.GetStringValue()
		}
		events[i] = model.SpanEvent{
			Name:       event.Name,
			Attributes: eventAttributes,
			Timestamp:  time.Unix(0, int64(event.TimeUnixNano)),
		}
	}
	return events
}

func getAttributes(span *v1.Span) map[string]string {
	attributes := make(map[string]string)
	for _, attribute := range span.Attributes {
		attributes[attribute.Key] = attribute.Value.GetStringValue()
	}
	return attributes
}

func getSpanKind(span *v1.Span) string {
	return span.Kind.String()
}

func getStatus(span *v1.Span) model.Status {
	if span.Status == nil || span.Status.Code == 0 {
		var message string
		if span.Status != nil {
			message = span.Status.Message
		}
		return model.Status{
			Message: message,
			Code:    model.UNSET,
		}
	}
	if span.Status.Code == 1 {
		return model.Status{
			Message: span.Status.Message,
			Code:    model.OK,
		}
	}
	return model.Status{
		Message: span.Status.Message,
		Code:    model.ERROR,
	}
}
