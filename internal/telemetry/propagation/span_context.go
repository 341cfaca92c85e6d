package propagation

import (
	"context"
	"encoding/hex"
	"fmt"
)

// TraceID identifies a whole trace. It is never all zero for a valid context.
type TraceID [16]byte

// SpanID identifies one span within a trace. It is never all zero for a valid context.
type SpanID [8]byte

// TraceFlags carries the sampling decision across process boundaries.
type TraceFlags byte

const FlagsSampled = TraceFlags(0x01)

func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

func (t TraceID) IsValid() bool {
	return t != TraceID{}
}

func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

func (s SpanID) IsValid() bool {
	return s != SpanID{}
}

func (f TraceFlags) IsSampled() bool {
	return f&FlagsSampled == FlagsSampled
}

func ParseTraceID(s string) (TraceID, error) {
	var traceID TraceID
	if len(s) != 2*len(traceID) {
		return TraceID{}, fmt.Errorf("trace id must be %d hex characters, got %d", 2*len(traceID), len(s))
	}
	decoded, err := decodeLowerHex(s)
	if err != nil {
		return TraceID{}, fmt.Errorf("error decoding trace id: %w", err)
	}
	copy(traceID[:], decoded)
	if !traceID.IsValid() {
		return TraceID{}, fmt.Errorf("trace id must not be all zeroes")
	}
	return traceID, nil
}

func ParseSpanID(s string) (SpanID, error) {
	var spanID SpanID
	if len(s) != 2*len(spanID) {
		return SpanID{}, fmt.Errorf("span id must be %d hex characters, got %d", 2*len(spanID), len(s))
	}
	decoded, err := decodeLowerHex(s)
	if err != nil {
		return SpanID{}, fmt.Errorf("error decoding span id: %w", err)
	}
	copy(spanID[:], decoded)
	if !spanID.IsValid() {
		return SpanID{}, fmt.Errorf("span id must not be all zeroes")
	}
	return spanID, nil
}

// decodeLowerHex rejects uppercase characters before decoding. The traceparent
// encoding requires lowercase hex, and a lenient decode would let two carriers
// of the same context disagree after a round trip.
func decodeLowerHex(s string) ([]byte, error) {
	for _, c := range s {
		if c >= 'A' && c <= 'F' {
			return nil, fmt.Errorf("uppercase hex character %q", c)
		}
	}
	return hex.DecodeString(s)
}

// SpanContext is the minimal identifying information linking spans across
// process boundaries: trace id, span id and the sampling flag.
type SpanContext struct {
	TraceID TraceID
	SpanID  SpanID
	Flags   TraceFlags
	// Remote is true when the context was extracted from an inbound carrier
	// rather than created by the local tracer.
	Remote bool
}

func (sc SpanContext) IsValid() bool {
	return sc.TraceID.IsValid() && sc.SpanID.IsValid()
}

func (sc SpanContext) IsSampled() bool {
	return sc.Flags.IsSampled()
}

type spanContextKey struct{}

// ContextWithSpanContext returns a context carrying sc as the current span
// context. The tracer updates it on every span start so that Inject always
// sees the innermost active span.
func ContextWithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanContextKey{}, sc)
}

// SpanContextFromContext returns the current span context, or a zero value
// when none is present.
func SpanContextFromContext(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanContextKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}
