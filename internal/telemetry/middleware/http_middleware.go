package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	metricService "github.com/Avi18971911/Emporium/internal/telemetry/metric/service"
	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
	"github.com/Avi18971911/Emporium/internal/telemetry/trace/model"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"github.com/gorilla/mux"
)

// ServerMetrics are the two per-request instruments every service records.
type ServerMetrics struct {
	Requests *metricService.Counter
	Duration *metricService.Histogram
}

// NewServerMetrics registers the request counter and duration histogram for
// one service, named with the service's metric prefix.
func NewServerMetrics(registry *metricService.Registry, prefix string) (*ServerMetrics, error) {
	requests, err := registry.GetOrCreateCounter(
		prefix+"_requests_total", "1", "Total number of handled requests",
	)
	if err != nil {
		return nil, fmt.Errorf("error registering request counter: %w", err)
	}
	duration, err := registry.GetOrCreateHistogram(
		prefix+"_request_duration_seconds", "s", "Request latency in seconds", nil,
	)
	if err != nil {
		return nil, fmt.Errorf("error registering duration histogram: %w", err)
	}
	return &ServerMetrics{Requests: requests, Duration: duration}, nil
}

// HTTPServer instruments every matched route: it adopts the trace context
// from the inbound headers when one is present, opens a server span covering
// the handler, and records one counter increment and one duration
// observation per request. Telemetry failures never reach the handler or the
// client response.
func HTTPServer(
	tracer *traceService.Tracer,
	propagator propagation.TraceContextPropagator,
	metrics *ServerMetrics,
) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if remote, ok := propagator.Extract(propagation.HeaderCarrier(r.Header)); ok {
				ctx = propagation.ContextWithSpanContext(ctx, remote)
			}

			route := routeTemplate(r)
			ctx, span := tracer.Start(ctx, r.Method+" "+route, traceService.WithKind(model.KindServer))
			defer span.End()

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r.WithContext(ctx))
			elapsed := time.Since(start).Seconds()

			attributes := map[string]string{
				"http.method":      r.Method,
				"http.route":       route,
				"http.status_code": strconv.Itoa(recorder.status),
			}
			span.SetAttributes(attributes)
			if recorder.status >= http.StatusInternalServerError {
				span.SetStatus(model.ERROR, http.StatusText(recorder.status))
			}
			if metrics != nil {
				metrics.Requests.Add(1, attributes)
				metrics.Duration.Record(elapsed, attributes)
			}
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
