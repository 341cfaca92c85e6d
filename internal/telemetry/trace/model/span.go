package model

import (
	"time"

	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
)

type StatusCode string

const (
	UNSET StatusCode = "UNSET"
	OK    StatusCode = "OK"
	ERROR StatusCode = "ERROR"
)

type Status struct {
	Code    StatusCode `json:"code"`
	Message string     `json:"message"`
}

type SpanKind string

const (
	KindInternal SpanKind = "INTERNAL"
	KindServer   SpanKind = "SERVER"
	KindClient   SpanKind = "CLIENT"
)

// ExceptionEventName is the event name under which recorded errors travel.
const ExceptionEventName = "exception"

const (
	ExceptionTypeAttribute    = "exception.type"
	ExceptionMessageAttribute = "exception.message"
)

type SpanEvent struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Span is the immutable record of one finished unit of work. It is assembled
// by the span handle while the operation runs and handed to the export queue
// on End, after which nothing mutates it.
type Span struct {
	TraceID      propagation.TraceID `json:"trace_id"`
	SpanID       propagation.SpanID  `json:"span_id"`
	ParentSpanID propagation.SpanID  `json:"parent_span_id"` // zero for a root span
	Name         string              `json:"name"`
	Kind         SpanKind            `json:"kind"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	Attributes   map[string]string   `json:"attributes"`
	Events       []SpanEvent         `json:"events"`
	Status       Status              `json:"status"`
}

func (s Span) IsRoot() bool {
	return !s.ParentSpanID.IsValid()
}
