package exporter

import (
	"testing"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/stretchr/testify/assert"
	v1 "go.opentelemetry.io/proto/otlp/trace/v1"
)

func TestBuildForwardRequest(t *testing.T) {
	t.Run("Groups spans under one resource per originating service", func(t *testing.T) {
		request := buildForwardRequest([]model.Span{
			forwardableSpan("cart", "b7ad6b7169203331"),
			forwardableSpan("frontend", "00f067aa0ba902b7"),
			forwardableSpan("cart", "1a2b3c4d5e6f7081"),
		})

		assert.Len(t, request.ResourceSpans, 2)
		assert.Equal(t, "cart", resourceServiceName(request.ResourceSpans[0]))
		assert.Equal(t, "frontend", resourceServiceName(request.ResourceSpans[1]))
		assert.Len(t, request.ResourceSpans[0].ScopeSpans[0].Spans, 2)
		assert.Len(t, request.ResourceSpans[1].ScopeSpans[0].Spans, 1)
	})

	t.Run("Re-encodes identifiers times attributes events and status", func(t *testing.T) {
		startTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		endTime := startTime.Add(30 * time.Millisecond)
		span := model.Span{
			TraceID:      "0af7651916cd43dd8448eb211c80319c",
			SpanID:       "b7ad6b7169203331",
			ParentSpanID: "00f067aa0ba902b7",
			ServiceName:  "cart",
			ActionName:   "POST /api/cart",
			SpanKind:     "SPAN_KIND_SERVER",
			StartTime:    startTime,
			EndTime:      endTime,
			Attributes:   map[string]string{"http.status_code": "500"},
			Events: []model.SpanEvent{
				{
					Name:       "exception",
					Attributes: map[string]string{"exception.message": "boom"},
					Timestamp:  endTime,
				},
			},
			Status: model.Status{Code: model.ERROR, Message: "boom"},
		}

		request := buildForwardRequest([]model.Span{span})
		forwarded := request.ResourceSpans[0].ScopeSpans[0].Spans[0]

		assert.Equal(t, testTraceIdBytes, forwarded.TraceId)
		assert.Equal(t, testSpanIdBytes, forwarded.SpanId)
		assert.Equal(t, testParentSpanIdBytes, forwarded.ParentSpanId)
		assert.Equal(t, "POST /api/cart", forwarded.Name)
		assert.Equal(t, v1.Span_SPAN_KIND_SERVER, forwarded.Kind)
		assert.Equal(t, uint64(startTime.UnixNano()), forwarded.StartTimeUnixNano)
		assert.Equal(t, uint64(endTime.UnixNano()), forwarded.EndTimeUnixNano)
		assert.Len(t, forwarded.Attributes, 1)
		assert.Equal(t, "http.status_code", forwarded.Attributes[0].Key)
		assert.Equal(t, "500", forwarded.Attributes[0].Value.GetStringValue())
		assert.Len(t, forwarded.Events, 1)
		assert.Equal(t, "exception", forwarded.Events[0].Name)
		assert.Equal(t, v1.Status_STATUS_CODE_ERROR, forwarded.Status.Code)
		assert.Equal(t, "boom", forwarded.Status.Message)
	})

	t.Run("Leaves the parent id empty for root spans", func(t *testing.T) {
		request := buildForwardRequest([]model.Span{forwardableSpan("cart", "b7ad6b7169203331")})
		forwarded := request.ResourceSpans[0].ScopeSpans[0].Spans[0]
		assert.Len(t, forwarded.ParentSpanId, 0)
	})

	t.Run("Falls back to the internal kind for unknown kind names", func(t *testing.T) {
		span := forwardableSpan("cart", "b7ad6b7169203331")
		span.SpanKind = "definitely not a kind"

		request := buildForwardRequest([]model.Span{span})
		forwarded := request.ResourceSpans[0].ScopeSpans[0].Spans[0]
		assert.Equal(t, v1.Span_SPAN_KIND_INTERNAL, forwarded.Kind)
	})
}

var testTraceIdBytes = []byte{
	0x0a, 0xf7, 0x65, 0x19, 0x16, 0xcd, 0x43, 0xdd,
	0x84, 0x48, 0xeb, 0x21, 0x1c, 0x80, 0x31, 0x9c,
}
var testSpanIdBytes = []byte{0xb7, 0xad, 0x6b, 0x71, 0x69, 0x20, 0x33, 0x31}
var testParentSpanIdBytes = []byte{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7}

func forwardableSpan(serviceName string, spanId string) model.Span {
	return model.Span{
		TraceID:     "0af7651916cd43dd8448eb211c80319c",
		SpanID:      spanId,
		ServiceName: serviceName,
		ActionName:  "GET /api/products",
		SpanKind:    "SPAN_KIND_SERVER",
		StartTime:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC),
		Status:      model.Status{Code: model.UNSET},
	}
}

func resourceServiceName(resourceSpans *v1.ResourceSpans) string {
	for _, attribute := range resourceSpans.Resource.Attributes {
		if attribute.Key == "service.name" {
			return attribute.Value.GetStringValue()
		}
	}
	return ""
}
