package pipeline

import (
	"errors"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/event_bus"
	"github.com/Avi18971911/Emporium/internal/collector/model"
	"go.uber.org/zap"
)

const (
	TopicSpanBatches   = "span_batches"
	TopicMetricBatches = "metric_batches"
)

var ErrPipelineSaturated = errors.New("telemetry volume exceeds the configured memory ceiling")

// TelemetryPipeline is the ordered processing chain between the receivers
// and the exporters: memory limiting, enrichment, then batching, with
// completed batches published on the event bus for every exporter to pick
// up. Spans and metric points flow through separate batch queues.
type TelemetryPipeline interface {
	ConsumeSpans(spans []model.Span) error
	ConsumePoints(points []model.MetricPoint) error
	Shutdown()
}

type TelemetryPipelineImpl struct {
	limiter      *MemoryLimiter
	enricher     *Enricher
	spanBus      event_bus.TelemetryEventBus[[]model.Span, []model.Span]
	pointBus     event_bus.TelemetryEventBus[[]model.MetricPoint, []model.MetricPoint]
	spanBatcher  BatchProcessor[model.Span]
	pointBatcher BatchProcessor[model.MetricPoint]
	logger       *zap.Logger
}

func NewTelemetryPipelineImpl(
	limiter *MemoryLimiter,
	enricher *Enricher,
	spanBus event_bus.TelemetryEventBus[[]model.Span, []model.Span],
	pointBus event_bus.TelemetryEventBus[[]model.MetricPoint, []model.MetricPoint],
	batchSize int,
	batchTimeout time.Duration,
	logger *zap.Logger,
) *TelemetryPipelineImpl {
	pipeline := &TelemetryPipelineImpl{
		limiter:  limiter,
		enricher: enricher,
		spanBus:  spanBus,
		pointBus: pointBus,
		logger:   logger,
	}
	pipeline.spanBatcher = NewBatchProcessorImpl[model.Span](
		batchSize, batchTimeout, pipeline.flushSpans, logger,
	)
	pipeline.pointBatcher = NewBatchProcessorImpl[model.MetricPoint](
		batchSize, batchTimeout, pipeline.flushPoints, logger,
	)
	return pipeline
}

// ConsumeSpans admits spans into the pipeline. When the memory ceiling would
// be exceeded the whole payload is refused with ErrPipelineSaturated and
// nothing is buffered.
func (p *TelemetryPipelineImpl) ConsumeSpans(spans []model.Span) error {
	if len(spans) == 0 {
		return nil
	}
	if !p.limiter.TryAcquire(int64(len(spans))) {
		return ErrPipelineSaturated
	}
	p.spanBatcher.Add(p.enricher.EnrichSpans(spans))
	return nil
}

// ConsumePoints admits metric points into the pipeline under the same
// ceiling as spans.
func (p *TelemetryPipelineImpl) ConsumePoints(points []model.MetricPoint) error {
	if len(points) == 0 {
		return nil
	}
	if !p.limiter.TryAcquire(int64(len(points))) {
		return ErrPipelineSaturated
	}
	p.pointBatcher.Add(p.enricher.EnrichPoints(points))
	return nil
}

// Shutdown flushes both batch queues. Exporter workers drain independently.
func (p *TelemetryPipelineImpl) Shutdown() {
	p.spanBatcher.Stop()
	p.pointBatcher.Stop()
}

func (p *TelemetryPipelineImpl) flushSpans(batch []model.Span) {
	defer p.limiter.Release(int64(len(batch)))
	if err := p.spanBus.Publish(TopicSpanBatches, batch); err != nil {
		p.logger.Error("Failed to publish span batch", zap.Error(err))
	}
}

func (p *TelemetryPipelineImpl) flushPoints(batch []model.MetricPoint) {
	defer p.limiter.Release(int64(len(batch)))
	if err := p.pointBus.Publish(TopicMetricBatches, batch); err != nil {
		p.logger.Error("Failed to publish metric batch", zap.Error(err))
	}
}
