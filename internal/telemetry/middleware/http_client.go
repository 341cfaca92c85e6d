package middleware

import (
	"net/http"
	"strconv"

	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
	"github.com/Avi18971911/Emporium/internal/telemetry/trace/model"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
)

// HTTPClient wraps an http.Client so that every outbound call carries the
// caller's trace context and contributes a client span to the trace.
type HTTPClient struct {
	client     *http.Client
	tracer     *traceService.Tracer
	propagator propagation.TraceContextPropagator
}

func NewHTTPClient(client *http.Client, tracer *traceService.Tracer) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{client: client, tracer: tracer}
}

// Do sends the request with an injected traceparent header under a client
// span. A transport error is recorded on the span and returned unchanged;
// a response with a 4xx or 5xx status marks the span as failed but is still
// returned to the caller to interpret.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	ctx, span := c.tracer.Start(
		req.Context(),
		req.Method+" "+req.URL.Path,
		traceService.WithKind(model.KindClient),
		traceService.WithAttributes(map[string]string{
			"http.method": req.Method,
			"http.url":    req.URL.String(),
		}),
	)
	defer span.End()

	req = req.WithContext(ctx)
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("http.status_code", strconv.Itoa(resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(model.ERROR, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}
