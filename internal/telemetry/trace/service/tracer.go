package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Avi18971911/Emporium/internal/telemetry/propagation"
	"github.com/Avi18971911/Emporium/internal/telemetry/trace/model"
	"go.uber.org/zap"
)

const (
	DefaultQueueSize       = 2048
	DefaultExportBatchSize = 512
	DefaultExportInterval  = 5 * time.Second
	defaultExportTimeout   = 10 * time.Second
)

type TracerConfig struct {
	// QueueSize bounds the number of finished spans waiting for export.
	// When the queue is full the incoming span is dropped and counted; End
	// never blocks the request path.
	QueueSize int
	// ExportBatchSize caps how many spans one export call carries.
	ExportBatchSize int
	// ExportInterval flushes a partially filled batch at this age.
	ExportInterval time.Duration
	// ExportTimeout bounds a single export call.
	ExportTimeout time.Duration
	// OnDrop, when set, is called once per dropped span. Wired to the
	// service's own drop counter instrument by the provider.
	OnDrop func()
	// OnExportError, when set, is called once per failed export batch.
	OnExportError func()
}

func (c TracerConfig) withDefaults() TracerConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.ExportBatchSize <= 0 {
		c.ExportBatchSize = DefaultExportBatchSize
	}
	if c.ExportInterval <= 0 {
		c.ExportInterval = DefaultExportInterval
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = defaultExportTimeout
	}
	return c
}

// SpanOption customizes a span at start time.
type SpanOption func(*model.Span)

func WithKind(kind model.SpanKind) SpanOption {
	return func(span *model.Span) {
		span.Kind = kind
	}
}

func WithAttributes(attributes map[string]string) SpanOption {
	return func(span *model.Span) {
		for key, value := range attributes {
			span.Attributes[key] = value
		}
	}
}

// Tracer is the span recorder: it opens spans, links them to their parents,
// and drains finished spans through a bounded queue to a SpanExporter on a
// background worker. The request path only ever touches the in-memory queue.
type Tracer struct {
	config   TracerConfig
	exporter SpanExporter
	logger   *zap.Logger

	queue   chan model.Span
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped atomic.Bool

	droppedSpans  atomic.Int64
	failedExports atomic.Int64
}

func NewTracer(exporter SpanExporter, config TracerConfig, logger *zap.Logger) *Tracer {
	config = config.withDefaults()
	tracer := &Tracer{
		config:   config,
		exporter: exporter,
		logger:   logger,
		queue:    make(chan model.Span, config.QueueSize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go tracer.run()
	return tracer
}

// Start opens a span named name. When ctx carries a span context (a local
// parent or one extracted from an inbound request), the new span joins that
// trace and records the parent's span id; otherwise it becomes the root of a
// fresh trace. The returned context carries both the live handle and the new
// span context for downstream propagation.
func (t *Tracer) Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	data := model.Span{
		SpanID:     newSpanID(),
		Name:       name,
		Kind:       model.KindInternal,
		StartTime:  time.Now(),
		Attributes: make(map[string]string),
		Status:     model.Status{Code: model.UNSET},
	}

	parent := propagation.SpanContextFromContext(ctx)
	if parent.IsValid() {
		data.TraceID = parent.TraceID
		data.ParentSpanID = parent.SpanID
	} else {
		data.TraceID = newTraceID()
	}

	for _, opt := range opts {
		opt(&data)
	}

	span := &Span{tracer: t, data: data}
	ctx = ContextWithSpan(ctx, span)
	ctx = propagation.ContextWithSpanContext(ctx, span.Context())
	return ctx, span
}

// DroppedSpans reports how many finished spans were shed on a full queue.
func (t *Tracer) DroppedSpans() int64 {
	return t.droppedSpans.Load()
}

// FailedExports reports how many export batches were abandoned after an
// exporter error.
func (t *Tracer) FailedExports() int64 {
	return t.failedExports.Load()
}

// Shutdown stops the worker and drains whatever the queue still holds,
// bounded by ctx. Spans ended after Shutdown are dropped and counted.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(t.stopCh)
	select {
	case <-t.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	return t.exporter.Shutdown(ctx)
}

func (t *Tracer) enqueue(span model.Span) {
	if t.stopped.Load() {
		t.countDrop()
		return
	}
	select {
	case t.queue <- span:
	default:
		t.countDrop()
	}
}

func (t *Tracer) countDrop() {
	t.droppedSpans.Add(1)
	if t.config.OnDrop != nil {
		t.config.OnDrop()
	}
}

func (t *Tracer) run() {
	defer close(t.doneCh)
	ticker := time.NewTicker(t.config.ExportInterval)
	defer ticker.Stop()

	batch := make([]model.Span, 0, t.config.ExportBatchSize)
	for {
		select {
		case span := <-t.queue:
			batch = append(batch, span)
			if len(batch) >= t.config.ExportBatchSize {
				batch = t.flush(batch)
			}
		case <-ticker.C:
			batch = t.flush(batch)
		case <-t.stopCh:
			batch = t.drain(batch)
			t.flush(batch)
			return
		}
	}
}

// drain empties the queue without blocking so Shutdown exports everything
// that made it in before the stop signal.
func (t *Tracer) drain(batch []model.Span) []model.Span {
	for {
		select {
		case span := <-t.queue:
			batch = append(batch, span)
			if len(batch) >= t.config.ExportBatchSize {
				batch = t.flush(batch)
			}
		default:
			return batch
		}
	}
}

func (t *Tracer) flush(batch []model.Span) []model.Span {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.config.ExportTimeout)
	defer cancel()
	if err := t.exporter.ExportSpans(ctx, batch); err != nil {
		t.failedExports.Add(1)
		if t.config.OnExportError != nil {
			t.config.OnExportError()
		}
		t.logger.Error("Failed to export span batch", zap.Int("batch_size", len(batch)), zap.Error(err))
	}
	return batch[:0]
}
