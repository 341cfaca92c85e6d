package service

import "context"

type activeSpanKey struct{}

// ContextWithSpan returns a context carrying span as the active span handle.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, activeSpanKey{}, span)
}

// SpanFromContext returns the active span handle, or nil when the context
// carries none. Callers must nil-check before mutating.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	if span, ok := ctx.Value(activeSpanKey{}).(*Span); ok {
		return span
	}
	return nil
}
