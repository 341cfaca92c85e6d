package propagation

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceContextPropagator_Inject(t *testing.T) {
	t.Run("Writes the traceparent field for a valid context", func(t *testing.T) {
		propagator := NewTraceContextPropagator()
		sc := sampleSpanContext()
		ctx := ContextWithSpanContext(context.Background(), sc)
		header := http.Header{}

		propagator.Inject(ctx, HeaderCarrier(header))

		assert.Equal(
			t,
			"00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01",
			header.Get(TraceparentHeader),
		)
	})

	t.Run("Does nothing when the context has no span context", func(t *testing.T) {
		propagator := NewTraceContextPropagator()
		header := http.Header{}

		propagator.Inject(context.Background(), HeaderCarrier(header))

		assert.Empty(t, header.Get(TraceparentHeader))
	})

	t.Run("Preserves an unsampled flag", func(t *testing.T) {
		propagator := NewTraceContextPropagator()
		sc := sampleSpanContext()
		sc.Flags = 0
		ctx := ContextWithSpanContext(context.Background(), sc)
		header := http.Header{}

		propagator.Inject(ctx, HeaderCarrier(header))

		assert.Equal(
			t,
			"00-0102030405060708090a0b0c0d0e0f10-0102030405060708-00",
			header.Get(TraceparentHeader),
		)
	})
}

func TestTraceContextPropagator_Extract(t *testing.T) {
	t.Run("Round trips an injected context", func(t *testing.T) {
		propagator := NewTraceContextPropagator()
		original := sampleSpanContext()
		ctx := ContextWithSpanContext(context.Background(), original)
		header := http.Header{}
		propagator.Inject(ctx, HeaderCarrier(header))

		extracted, ok := propagator.Extract(HeaderCarrier(header))

		assert.True(t, ok)
		assert.Equal(t, original.TraceID, extracted.TraceID)
		assert.Equal(t, original.SpanID, extracted.SpanID)
		assert.Equal(t, original.Flags, extracted.Flags)
		assert.True(t, extracted.Remote)
	})

	t.Run("Two extracts of the same carrier agree", func(t *testing.T) {
		propagator := NewTraceContextPropagator()
		ctx := ContextWithSpanContext(context.Background(), sampleSpanContext())
		header := http.Header{}
		propagator.Inject(ctx, HeaderCarrier(header))

		first, okFirst := propagator.Extract(HeaderCarrier(header))
		second, okSecond := propagator.Extract(HeaderCarrier(header))

		assert.True(t, okFirst)
		assert.True(t, okSecond)
		assert.Equal(t, first, second)
	})

	t.Run("Reports absence for a missing header", func(t *testing.T) {
		propagator := NewTraceContextPropagator()

		_, ok := propagator.Extract(HeaderCarrier(http.Header{}))

		assert.False(t, ok)
	})

	t.Run("Accepts a future version with trailing fields", func(t *testing.T) {
		propagator := NewTraceContextPropagator()
		header := http.Header{}
		header.Set(
			TraceparentHeader,
			"01-0102030405060708090a0b0c0d0e0f10-0102030405060708-01-extra",
		)

		extracted, ok := propagator.Extract(HeaderCarrier(header))

		assert.True(t, ok)
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", extracted.TraceID.String())
	})

	t.Run("Treats malformed headers as absent", func(t *testing.T) {
		malformed := []string{
			"not-a-traceparent",
			"00-0102030405060708090a0b0c0d0e0f10-0102030405060708",
			"00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01-extra",
			"ff-0102030405060708090a0b0c0d0e0f10-0102030405060708-01",
			"00-00000000000000000000000000000000-0102030405060708-01",
			"00-0102030405060708090a0b0c0d0e0f10-0000000000000000-01",
			"00-0102030405060708090A0B0C0D0E0F10-0102030405060708-01",
			"00-0102030405060708090a0b0c0d0e0f1-0102030405060708-01",
			"00-0102030405060708090a0b0c0d0e0f10-010203040506070-01",
			"00-0102030405060708090a0b0c0d0e0f10-0102030405060708-0x",
			"zz-0102030405060708090a0b0c0d0e0f10-0102030405060708-01",
			"",
		}
		propagator := NewTraceContextPropagator()
		for _, value := range malformed {
			header := http.Header{}
			if value != "" {
				header.Set(TraceparentHeader, value)
			}
			_, ok := propagator.Extract(HeaderCarrier(header))
			assert.False(t, ok, "expected %q to be treated as absent", value)
		}
	})

	t.Run("Masks unknown flag bits down to the sampling bit", func(t *testing.T) {
		propagator := NewTraceContextPropagator()
		header := http.Header{}
		header.Set(TraceparentHeader, "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-ff")

		extracted, ok := propagator.Extract(HeaderCarrier(header))

		assert.True(t, ok)
		assert.Equal(t, FlagsSampled, extracted.Flags)
		assert.True(t, extracted.IsSampled())
	})
}

func TestParseTraceID(t *testing.T) {
	t.Run("Parses a valid lowercase id", func(t *testing.T) {
		traceID, err := ParseTraceID("0102030405060708090a0b0c0d0e0f10")
		assert.Nil(t, err)
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", traceID.String())
	})

	t.Run("Rejects an all-zero id", func(t *testing.T) {
		_, err := ParseTraceID("00000000000000000000000000000000")
		assert.NotNil(t, err)
	})
}

func sampleSpanContext() SpanContext {
	traceID, _ := ParseTraceID("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := ParseSpanID("0102030405060708")
	return SpanContext{
		TraceID: traceID,
		SpanID:  spanID,
		Flags:   FlagsSampled,
	}
}
