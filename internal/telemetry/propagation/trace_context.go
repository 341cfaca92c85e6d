package propagation

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// TraceparentHeader is the carrier field holding the versioned text encoding
// of a span context, per the W3C Trace Context format.
const TraceparentHeader = "traceparent"

const supportedVersion = "00"

// TextCarrier abstracts the header map of an outbound or inbound request so
// the propagator stays transport-agnostic.
type TextCarrier interface {
	Get(key string) string
	Set(key string, value string)
}

// HeaderCarrier adapts http.Header to the TextCarrier interface.
type HeaderCarrier http.Header

func (hc HeaderCarrier) Get(key string) string {
	return http.Header(hc).Get(key)
}

func (hc HeaderCarrier) Set(key string, value string) {
	http.Header(hc).Set(key, value)
}

// TraceContextPropagator encodes and decodes span contexts using the
// traceparent text format: 00-<32 hex trace id>-<16 hex span id>-<2 hex flags>.
// It performs no I/O and never blocks.
type TraceContextPropagator struct{}

func NewTraceContextPropagator() TraceContextPropagator {
	return TraceContextPropagator{}
}

// Inject writes the current span context from ctx into the carrier. It is a
// no-op when the context holds no valid span context.
func (p TraceContextPropagator) Inject(ctx context.Context, carrier TextCarrier) {
	sc := SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	carrier.Set(TraceparentHeader, fmt.Sprintf(
		"%s-%s-%s-%02x",
		supportedVersion,
		sc.TraceID.String(),
		sc.SpanID.String(),
		byte(sc.Flags),
	))
}

// Extract parses the traceparent field out of the carrier. A missing or
// malformed field is not an error: it reports false and the caller starts a
// fresh root trace. Extracting the same injected carrier twice always yields
// identical contexts.
func (p TraceContextPropagator) Extract(carrier TextCarrier) (SpanContext, bool) {
	header := strings.TrimSpace(carrier.Get(TraceparentHeader))
	if header == "" {
		return SpanContext{}, false
	}

	parts := strings.Split(header, "-")
	if len(parts) < 4 {
		return SpanContext{}, false
	}

	version := parts[0]
	if !isVersionParseable(version) {
		return SpanContext{}, false
	}
	// The current version has exactly four fields; future versions may append
	// more, and must still carry the first four unchanged.
	if version == supportedVersion && len(parts) != 4 {
		return SpanContext{}, false
	}

	traceID, err := ParseTraceID(parts[1])
	if err != nil {
		return SpanContext{}, false
	}
	spanID, err := ParseSpanID(parts[2])
	if err != nil {
		return SpanContext{}, false
	}
	flags, ok := parseFlags(parts[3])
	if !ok {
		return SpanContext{}, false
	}

	return SpanContext{
		TraceID: traceID,
		SpanID:  spanID,
		Flags:   flags & FlagsSampled,
		Remote:  true,
	}, true
}

func isVersionParseable(version string) bool {
	if len(version) != 2 {
		return false
	}
	if _, err := decodeLowerHex(version); err != nil {
		return false
	}
	// 0xff is reserved and must be rejected.
	return version != "ff"
}

func parseFlags(field string) (TraceFlags, bool) {
	if len(field) != 2 {
		return 0, false
	}
	parsed, err := strconv.ParseUint(field, 16, 8)
	if err != nil {
		return 0, false
	}
	if field != fmt.Sprintf("%02x", parsed) {
		return 0, false
	}
	return TraceFlags(parsed), true
}
