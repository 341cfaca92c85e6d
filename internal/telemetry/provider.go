package telemetry

import (
	"context"
	"errors"
	"fmt"

	metricService "github.com/Avi18971911/Emporium/internal/telemetry/metric/service"
	"github.com/Avi18971911/Emporium/internal/telemetry/resource"
	traceService "github.com/Avi18971911/Emporium/internal/telemetry/trace/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config selects where a service's telemetry goes and how it is identified
// there.
type Config struct {
	ServiceName      string
	ServiceVersion   string
	CollectorAddress string
}

// Provider owns one service's telemetry plumbing: the resource identity, the
// span recorder, the instrument registry and the periodic metric reader, all
// exporting over a single shared OTLP connection. Dropped spans and failed
// exports are themselves counted as metrics so the pipeline's losses stay
// visible.
type Provider struct {
	Tracer   *traceService.Tracer
	Registry *metricService.Registry
	Resource resource.Resource

	conn   *grpc.ClientConn
	reader *metricService.PeriodicReader
	logger *zap.Logger
}

func NewProvider(config Config, logger *zap.Logger) (*Provider, error) {
	res := resource.New(config.ServiceName, config.ServiceVersion)
	conn, err := grpc.NewClient(
		config.CollectorAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to collector at %s: %w", config.CollectorAddress, err)
	}

	registry := metricService.NewRegistry()
	droppedSpans, err := registry.GetOrCreateCounter(
		"telemetry_spans_dropped_total", "1", "Spans shed on a full export queue",
	)
	if err != nil {
		return nil, fmt.Errorf("error registering drop counter: %w", err)
	}
	exportFailures, err := registry.GetOrCreateCounter(
		"telemetry_export_failures_total", "1", "Telemetry batches abandoned after export errors",
	)
	if err != nil {
		return nil, fmt.Errorf("error registering export failure counter: %w", err)
	}

	spanExporter := traceService.NewOTLPSpanExporter(conn, res, config.ServiceName, config.ServiceVersion)
	tracer := traceService.NewTracer(
		spanExporter,
		traceService.TracerConfig{
			OnDrop: func() {
				droppedSpans.Add(1, nil)
			},
			OnExportError: func() {
				exportFailures.Add(1, map[string]string{"signal": "traces"})
			},
		},
		logger,
	)

	metricExporter := metricService.NewOTLPMetricExporter(conn, res, config.ServiceName, config.ServiceVersion)
	reader := metricService.NewPeriodicReader(
		registry,
		metricExporter,
		metricService.ReaderConfig{
			OnExportError: func() {
				exportFailures.Add(1, map[string]string{"signal": "metrics"})
			},
		},
		logger,
	)

	return &Provider{
		Tracer:   tracer,
		Registry: registry,
		Resource: res,
		conn:     conn,
		reader:   reader,
		logger:   logger,
	}, nil
}

// Shutdown flushes both signals and closes the collector connection. Safe to
// call once at process exit; bounded by ctx.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if err := p.Tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down tracer: %w", err))
	}
	if err := p.reader.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down metric reader: %w", err))
	}
	if err := p.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing collector connection: %w", err))
	}
	return errors.Join(errs...)
}
