package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
	"github.com/Avi18971911/Emporium/internal/telemetry/trace/model"
)

// Span is the live handle for one in-progress operation. It is owned by the
// call frame that started it: attributes, events and status may be set until
// End, after which every mutator is a no-op and the finished record belongs
// to the tracer's export queue.
type Span struct {
	tracer *Tracer
	ended  atomic.Bool

	mu   sync.Mutex
	data model.Span
}

// Context returns the span's identifying context for propagation.
func (s *Span) Context() propagation.SpanContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return propagation.SpanContext{
		TraceID: s.data.TraceID,
		SpanID:  s.data.SpanID,
		Flags:   propagation.FlagsSampled,
	}
}

// SetAttributes merges the given attributes into the span.
func (s *Span) SetAttributes(attributes map[string]string) {
	if s.ended.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range attributes {
		s.data.Attributes[key] = value
	}
}

// SetAttribute sets a single attribute.
func (s *Span) SetAttribute(key string, value string) {
	s.SetAttributes(map[string]string{key: value})
}

// AddEvent records a named point-in-time event on the span.
func (s *Span) AddEvent(name string, attributes map[string]string) {
	if s.ended.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Events = append(s.data.Events, model.SpanEvent{
		Name:       name,
		Attributes: attributes,
		Timestamp:  time.Now(),
	})
}

// RecordError attaches err as an exception event and marks the span status
// as error. A nil error is ignored.
func (s *Span) RecordError(err error) {
	if err == nil || s.ended.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Events = append(s.data.Events, model.SpanEvent{
		Name: model.ExceptionEventName,
		Attributes: map[string]string{
			model.ExceptionTypeAttribute:    fmt.Sprintf("%T", err),
			model.ExceptionMessageAttribute: err.Error(),
		},
		Timestamp: time.Now(),
	})
	s.data.Status = model.Status{Code: model.ERROR, Message: err.Error()}
}

// SetStatus sets the span status explicitly. An error status set via
// RecordError is not downgraded by a later OK.
func (s *Span) SetStatus(code model.StatusCode, message string) {
	if s.ended.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Status.Code == model.ERROR && code != model.ERROR {
		return
	}
	s.data.Status = model.Status{Code: code, Message: message}
}

// End closes the span, stamps the end time and hands the finished record to
// the tracer's export queue. Calling End again is a no-op: the first call
// wins and later calls neither block nor mutate.
func (s *Span) End() {
	if !s.ended.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	s.data.EndTime = time.Now()
	finished := s.data
	s.mu.Unlock()
	s.tracer.enqueue(finished)
}
