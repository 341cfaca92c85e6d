package service

import (
	"crypto/rand"

	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
)

// newTraceID draws a random 16-byte trace id. All-zero ids are invalid on the
// wire, so the draw repeats on the astronomically unlikely zero result.
func newTraceID() propagation.TraceID {
	var traceID propagation.TraceID
	for {
		_, _ = rand.Read(traceID[:])
		if traceID.IsValid() {
			return traceID
		}
	}
}

func newSpanID() propagation.SpanID {
	var spanID propagation.SpanID
	for {
		_, _ = rand.Read(spanID[:])
		if spanID.IsValid() {
			return spanID
		}
	}
}
