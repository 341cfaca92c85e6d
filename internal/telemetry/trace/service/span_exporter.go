package service

import (
	"context"

	"github.com/Avi18971911/Emporium/internal/telemetry/resource"
	"github.com/Avi18971911/Emporium/internal/telemetry/trace/model"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
	v1 "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/grpc"
)

// SpanExporter delivers finished spans to a telemetry backend. Implementations
// must tolerate being called from a single worker goroutine at a time.
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []model.Span) error
	Shutdown(ctx context.Context) error
}

// OTLPSpanExporter ships span batches to a collector over OTLP gRPC. The
// connection is owned by the caller and shared with the metrics exporter.
type OTLPSpanExporter struct {
	client       protoTrace.TraceServiceClient
	res          resource.Resource
	scopeName    string
	scopeVersion string
}

func NewOTLPSpanExporter(
	conn *grpc.ClientConn,
	res resource.Resource,
	scopeName string,
	scopeVersion string,
) *OTLPSpanExporter {
	return &OTLPSpanExporter{
		client:       protoTrace.NewTraceServiceClient(conn),
		res:          res,
		scopeName:    scopeName,
		scopeVersion: scopeVersion,
	}
}

func (e *OTLPSpanExporter) ExportSpans(ctx context.Context, spans []model.Span) error {
	if len(spans) == 0 {
		return nil
	}
	_, err := e.client.Export(ctx, e.buildRequest(spans))
	return err
}

func (e *OTLPSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (e *OTLPSpanExporter) buildRequest(spans []model.Span) *protoTrace.ExportTraceServiceRequest {
	protoSpans := make([]*v1.Span, len(spans))
	for i, span := range spans {
		protoSpans[i] = toProtoSpan(span)
	}
	return &protoTrace.ExportTraceServiceRequest{
		ResourceSpans: []*v1.ResourceSpans{
			{
				Resource: &resourcev1.Resource{
					Attributes: toProtoAttributes(e.res.Attributes()),
				},
				ScopeSpans: []*v1.ScopeSpans{
					{
						Scope: &commonv1.InstrumentationScope{
							Name:    e.scopeName,
							Version: e.scopeVersion,
						},
						Spans: protoSpans,
					},
				},
			},
		},
	}
}

func toProtoSpan(span model.Span) *v1.Span {
	protoSpan := &v1.Span{
		TraceId:           span.TraceID[:],
		SpanId:            span.SpanID[:],
		Name:              span.Name,
		Kind:              toProtoKind(span.Kind),
		StartTimeUnixNano: uint64(span.StartTime.UnixNano()),
		EndTimeUnixNano:   uint64(span.EndTime.UnixNano()),
		Attributes:        toProtoAttributes(span.Attributes),
		Events:            toProtoEvents(span.Events),
		Status:            toProtoStatus(span.Status),
	}
	if span.ParentSpanID.IsValid() {
		protoSpan.ParentSpanId = span.ParentSpanID[:]
	}
	return protoSpan
}

func toProtoKind(kind model.SpanKind) v1.Span_SpanKind {
	switch kind {
	case model.KindServer:
		return v1.Span_SPAN_KIND_SERVER
	case model.KindClient:
		return v1.Span_SPAN_KIND_CLIENT
	default:
		return v1.Span_SPAN_KIND_INTERNAL
	}
}

func toProtoAttributes(attributes map[string]string) []*commonv1.KeyValue {
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

func toProtoEvents(events []model.SpanEvent) []*v1.Span_Event {
	protoEvents := make([]*v1.Span_Event, len(events))
	for i, event := range events {
		protoEvents[i] = &v1.Span_Event{
			Name:         event.Name,
			TimeUnixNano: uint64(event.Timestamp.UnixNano()),
			Attributes:   toProtoAttributes(event.Attributes),
		}
	}
	return protoEvents
}

func toProtoStatus(status model.Status) *v1.Status {
	code := v1.Status_STATUS_CODE_UNSET
	switch status.Code {
	case model.OK:
		code = v1.Status_STATUS_CODE_OK
	case model.ERROR:
		code = v1.Status_STATUS_CODE_ERROR
	}
	return &v1.Status{Code: code, Message: status.Message}
}
