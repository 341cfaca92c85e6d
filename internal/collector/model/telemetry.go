package model

import "time"

type StatusCode string

const (
	UNSET StatusCode = "unset"
	OK    StatusCode = "ok"
	ERROR StatusCode = "error"
)

type Status struct {
	Message string     `json:"message"`
	Code    StatusCode `json:"code"`
}

// Span is the collector's internal representation of one received span,
// shaped for processing and for archival as a JSON document. Identifiers are
// carried as lowercase hex strings exactly as decoded from the wire.
type Span struct {
	Id           string            `json:"_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	SpanID       string            `json:"span_id"`
	ParentSpanID string            `json:"parent_span_id"`
	TraceID      string            `json:"trace_id"`
	ServiceName  string            `json:"service_name"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	ActionName   string            `json:"action_name"`
	SpanKind     string            `json:"span_kind"`
	Attributes   map[string]string `json:"attributes"`
	Events       []SpanEvent       `json:"events"`
	Status       Status            `json:"status"`
}

type SpanEvent struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  time.Time         `json:"timestamp"`
}

type MetricKind string

const (
	KindSum       MetricKind = "sum"
	KindHistogram MetricKind = "histogram"
)

// MetricPoint is the collector's internal representation of one received
// metric data point. Sum points use Value; histogram points use Count, Sum,
// Bounds and BucketCounts.
type MetricPoint struct {
	ServiceName  string            `json:"service_name"`
	Name         string            `json:"name"`
	Unit         string            `json:"unit"`
	Description  string            `json:"description"`
	Kind         MetricKind        `json:"kind"`
	Monotonic    bool              `json:"monotonic"`
	Cumulative   bool              `json:"cumulative"`
	Value        float64           `json:"value"`
	Count        uint64            `json:"count"`
	Sum          float64           `json:"sum"`
	Bounds       []float64         `json:"bounds,omitempty"`
	BucketCounts []uint64          `json:"bucket_counts,omitempty"`
	Attributes   map[string]string `json:"attributes"`
	StartTime    time.Time         `json:"start_time"`
	Timestamp    time.Time         `json:"timestamp"`
}
