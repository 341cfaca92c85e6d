package exporter

import (
	"context"
	"encoding/hex"

	"github.com/Avi18971911/Emporium/internal/collector/model"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	resourcev1 "go.opentelemetry.io/proto/otlp/resource/v1"
	v1 "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/grpc"
)

// OTLPTraceForwarder re-encodes processed spans and forwards them to the
// downstream trace store over OTLP gRPC. Spans are grouped back under one
// resource per originating service so the store attributes them correctly.
type OTLPTraceForwarder struct {
	client protoTrace.TraceServiceClient
}

func NewOTLPTraceForwarder(conn *grpc.ClientConn) *OTLPTraceForwarder {
	return &OTLPTraceForwarder{client: protoTrace.NewTraceServiceClient(conn)}
}

func (f *OTLPTraceForwarder) ExportSpans(ctx context.Context, spans []model.Span) error {
	if len(spans) == 0 {
		return nil
	}
	_, err := f.client.Export(ctx, buildForwardRequest(spans))
	return err
}

func buildForwardRequest(spans []model.Span) *protoTrace.ExportTraceServiceRequest {
	byService := make(map[string][]*v1.Span)
	serviceOrder := make([]string, 0)
	for _, span := range spans {
		if _, seen := byService[span.ServiceName]; !seen {
			serviceOrder = append(serviceOrder, span.ServiceName)
		}
		byService[span.ServiceName] = append(byService[span.ServiceName], toForwardedSpan(span))
	}

	resourceSpans := make([]*v1.ResourceSpans, 0, len(serviceOrder))
	for _, serviceName := range serviceOrder {
		resourceSpans = append(resourceSpans, &v1.ResourceSpans{
			Resource: &resourcev1.Resource{
				Attributes: []*commonv1.KeyValue{
					{
						Key: "service.name",
						Value: &commonv1.AnyValue{
							Value: &commonv1.AnyValue_StringValue{StringValue: serviceName},
						},
					},
				},
			},
			ScopeSpans: []*v1.ScopeSpans{
				{Spans: byService[serviceName]},
			},
		})
	}
	return &protoTrace.ExportTraceServiceRequest{ResourceSpans: resourceSpans}
}

func toForwardedSpan(span model.Span) *v1.Span {
	forwarded := &v1.Span{
		TraceId:           decodeHexId(span.TraceID),
		SpanId:            decodeHexId(span.SpanID),
		ParentSpanId:      decodeHexId(span.ParentSpanID),
		Name:              span.ActionName,
		StartTimeUnixNano: uint64(span.StartTime.UnixNano()),
		EndTimeUnixNano:   uint64(span.EndTime.UnixNano()),
		Attributes:        toForwardedAttributes(span.Attributes),
		Events:            toForwardedEvents(span.Events),
		Status:            toForwardedStatus(span.Status),
		Kind:              toForwardedKind(span.SpanKind),
	}
	return forwarded
}

func decodeHexId(id string) []byte {
	decoded, err := hex.DecodeString(id)
	if err != nil {
		return nil
	}
	return decoded
}

func toForwardedKind(kind string) v1.Span_SpanKind {
	if value, ok := v1.Span_SpanKind_value[kind]; ok {
		return v1.Span_SpanKind(value)
	}
	return v1.Span_SPAN_KIND_INTERNAL
}

func toForwardedStatus(status model.Status) *v1.Status {
	code := v1.Status_STATUS_CODE_UNSET
	switch status.Code {
	case model.OK:
		code = v1.Status_STATUS_CODE_OK
	case model.ERROR:
		code = v1.Status_STATUS_CODE_ERROR
	}
	return &v1.Status{Code: code, Message: status.Message}
}

func toForwardedAttributes(attributes map[string]string) []*commonv1.KeyValue {
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

func toForwardedEvents(events []model.SpanEvent) []*v1.Span_Event {
	forwarded := make([]*v1.Span_Event, len(events))
	for i, event := range events {
		forwarded[i] = &v1.Span_Event{
			Name:         event.Name,
			TimeUnixNano: uint64(event.Timestamp.UnixNano()),
			Attributes:   toForwardedAttributes(event.Attributes),
		}
	}
	return forwarded
}
