package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTelemetryPipeline(t *testing.T) {
	t.Run("Enriches accepted spans and publishes them as a batch", func(t *testing.T) {
		spanBus := newCaptureBus[[]model.Span]()
		pointBus := newCaptureBus[[]model.MetricPoint]()
		limiter := NewMemoryLimiter(1000, nil)
		enricher := NewEnricher(map[string]string{"deployment.environment": "demo"})
		pipeline := NewTelemetryPipelineImpl(
			limiter, enricher, spanBus, pointBus, 512, time.Hour, zap.NewNop(),
		)

		err := pipeline.ConsumeSpans([]model.Span{
			{SpanID: "b7ad6b7169203331", ServiceName: "cart"},
			{SpanID: "00f067aa0ba902b7", ServiceName: "frontend"},
		})
		assert.NoError(t, err)
		pipeline.Shutdown()

		published := spanBus.published()
		assert.Len(t, published, 1)
		assert.Equal(t, TopicSpanBatches, spanBus.topics()[0])
		assert.Len(t, published[0], 2)
		for _, span := range published[0] {
			assert.Equal(t, "demo", span.Attributes["deployment.environment"])
		}
		assert.Equal(t, int64(0), limiter.InFlight())
	})

	t.Run("Publishes metric batches on their own topic", func(t *testing.T) {
		spanBus := newCaptureBus[[]model.Span]()
		pointBus := newCaptureBus[[]model.MetricPoint]()
		limiter := NewMemoryLimiter(1000, nil)
		pipeline := NewTelemetryPipelineImpl(
			limiter, NewEnricher(nil), spanBus, pointBus, 512, time.Hour, zap.NewNop(),
		)

		err := pipeline.ConsumePoints([]model.MetricPoint{
			{Name: "cart_requests_total", ServiceName: "cart", Value: 3},
		})
		assert.NoError(t, err)
		pipeline.Shutdown()

		assert.Len(t, spanBus.published(), 0)
		assert.Len(t, pointBus.published(), 1)
		assert.Equal(t, TopicMetricBatches, pointBus.topics()[0])
	})

	t.Run("Refuses a burst beyond the memory ceiling and keeps accepting afterwards", func(t *testing.T) {
		spanBus := newCaptureBus[[]model.Span]()
		pointBus := newCaptureBus[[]model.MetricPoint]()
		var refused atomic.Int64
		limiter := NewMemoryLimiter(1000, func(count int64) {
			refused.Add(count)
		})
		pipeline := NewTelemetryPipelineImpl(
			limiter, NewEnricher(nil), spanBus, pointBus, 20000, time.Hour, zap.NewNop(),
		)

		var accepted, rejected int
		for chunk := 0; chunk < 100; chunk++ {
			spans := make([]model.Span, 100)
			for i := range spans {
				spans[i] = model.Span{SpanID: fmt.Sprintf("%016x", chunk*100+i)}
			}
			if err := pipeline.ConsumeSpans(spans); err != nil {
				assert.ErrorIs(t, err, ErrPipelineSaturated)
				rejected++
			} else {
				accepted++
			}
		}

		assert.Equal(t, 10, accepted)
		assert.Equal(t, 90, rejected)
		assert.Equal(t, int64(9000), refused.Load())
		assert.Equal(t, int64(1000), limiter.InFlight())

		pipeline.Shutdown()
		assert.Equal(t, int64(0), limiter.InFlight())
		err := pipeline.ConsumeSpans([]model.Span{{SpanID: "b7ad6b7169203331"}})
		assert.NoError(t, err)
	})

	t.Run("Accepts concurrent producers without mixing their batches' totals", func(t *testing.T) {
		spanBus := newCaptureBus[[]model.Span]()
		pointBus := newCaptureBus[[]model.MetricPoint]()
		limiter := NewMemoryLimiter(100000, nil)
		pipeline := NewTelemetryPipelineImpl(
			limiter, NewEnricher(nil), spanBus, pointBus, 50, time.Hour, zap.NewNop(),
		)

		const producers = 20
		const spansPerProducer = 50
		var wg sync.WaitGroup
		wg.Add(producers)
		for p := 0; p < producers; p++ {
			go func(p int) {
				defer wg.Done()
				for i := 0; i < spansPerProducer; i++ {
					err := pipeline.ConsumeSpans([]model.Span{
						{SpanID: fmt.Sprintf("%08x%08x", p, i)},
					})
					assert.NoError(t, err)
				}
			}(p)
		}
		wg.Wait()
		pipeline.Shutdown()

		total := 0
		for _, batch := range spanBus.published() {
			total += len(batch)
		}
		assert.Equal(t, producers*spansPerProducer, total)
		assert.Equal(t, int64(0), limiter.InFlight())
	})
}

type captureBus[PayloadType any] struct {
	mu       sync.Mutex
	payloads []PayloadType
	onTopics []string
}

func newCaptureBus[PayloadType any]() *captureBus[PayloadType] {
	return &captureBus[PayloadType]{}
}

func (b *captureBus[PayloadType]) Subscribe(
	_ string,
	_ func(input PayloadType) error,
	_ bool,
) error {
	return nil
}

func (b *captureBus[PayloadType]) Publish(topic string, arg PayloadType) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, arg)
	b.onTopics = append(b.onTopics, topic)
	return nil
}

func (b *captureBus[PayloadType]) published() []PayloadType {
	b.mu.Lock()
	defer b.mu.Unlock()
	payloads := make([]PayloadType, len(b.payloads))
	copy(payloads, b.payloads)
	return payloads
}

func (b *captureBus[PayloadType]) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	topics := make([]string, len(b.onTopics))
	copy(topics, b.onTopics)
	return topics
}
