package exporter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExportWorkerDelivery(t *testing.T) {
	t.Run("Delivers queued batches to the sink in order", func(t *testing.T) {
		sink := newCaptureSink()
		worker := NewExportWorker("debug", sink.export, WorkerConfig{InitialInterval: time.Millisecond}, zap.NewNop())
		defer shutdownWorker(t, worker)

		worker.Enqueue([]model.Span{{SpanID: "first"}})
		worker.Enqueue([]model.Span{{SpanID: "second"}})

		waitForCount(t, worker.ExportedBatches, 2)
		batches := sink.exportedBatches()
		assert.Len(t, batches, 2)
		assert.Equal(t, "first", batches[0][0].SpanID)
		assert.Equal(t, "second", batches[1][0].SpanID)
	})

	t.Run("Ignores empty batches", func(t *testing.T) {
		sink := newCaptureSink()
		worker := NewExportWorker("debug", sink.export, WorkerConfig{InitialInterval: time.Millisecond}, zap.NewNop())

		worker.Enqueue(nil)
		worker.Enqueue([]model.Span{})
		shutdownWorker(t, worker)

		assert.Equal(t, int64(0), worker.ExportedBatches())
		assert.Len(t, sink.exportedBatches(), 0)
	})

	t.Run("Delivers a batch after a transient sink failure", func(t *testing.T) {
		sink := newCaptureSink()
		sink.failNext(1)
		worker := NewExportWorker("archive", sink.export, WorkerConfig{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
		}, zap.NewNop())
		defer shutdownWorker(t, worker)

		worker.Enqueue([]model.Span{{SpanID: "retried"}})

		waitForCount(t, worker.ExportedBatches, 1)
		assert.Equal(t, int64(0), worker.FailedBatches())
		assert.Equal(t, 2, sink.attemptCount())
	})

	t.Run("Drops a batch with a counted failure once the retry budget is spent", func(t *testing.T) {
		sink := newCaptureSink()
		sink.failAlways()
		worker := NewExportWorker("forwarder", sink.export, WorkerConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
		}, zap.NewNop())
		defer shutdownWorker(t, worker)

		worker.Enqueue([]model.Span{{SpanID: "doomed"}})

		waitForCount(t, worker.FailedBatches, 1)
		assert.Equal(t, int64(0), worker.ExportedBatches())
		assert.Equal(t, 3, sink.attemptCount())
	})

	t.Run("Sheds the newest batch when the queue is full", func(t *testing.T) {
		sink := newBlockingSink()
		worker := NewExportWorker("archive", sink.export, WorkerConfig{
			QueueSize:       1,
			InitialInterval: time.Millisecond,
		}, zap.NewNop())

		worker.Enqueue([]model.Span{{SpanID: "exporting"}})
		sink.awaitExport(t)
		worker.Enqueue([]model.Span{{SpanID: "queued"}})
		worker.Enqueue([]model.Span{{SpanID: "shed"}})

		assert.Equal(t, int64(1), worker.DroppedBatches())

		sink.release()
		shutdownWorker(t, worker)
		assert.Equal(t, int64(2), worker.ExportedBatches())
	})

	t.Run("Drains queued batches on shutdown", func(t *testing.T) {
		sink := newCaptureSink()
		worker := NewExportWorker("debug", sink.export, WorkerConfig{
			QueueSize:       8,
			InitialInterval: time.Millisecond,
		}, zap.NewNop())

		for i := 0; i < 5; i++ {
			worker.Enqueue([]model.Span{{SpanID: "queued"}})
		}
		shutdownWorker(t, worker)

		assert.Equal(t, int64(5), worker.ExportedBatches())
	})

	t.Run("Ignores batches enqueued after shutdown", func(t *testing.T) {
		sink := newCaptureSink()
		worker := NewExportWorker("debug", sink.export, WorkerConfig{InitialInterval: time.Millisecond}, zap.NewNop())
		shutdownWorker(t, worker)

		worker.Enqueue([]model.Span{{SpanID: "late"}})

		assert.Equal(t, int64(0), worker.ExportedBatches())
		assert.Equal(t, int64(0), worker.DroppedBatches())
	})
}

func TestExportWorkerIsolation(t *testing.T) {
	t.Run("Keeps a healthy exporter delivering while another sink is unreachable", func(t *testing.T) {
		unreachable := errors.New("connection refused")
		traceWorker := NewExportWorker(
			"forwarder",
			func(ctx context.Context, batch []model.Span) error { return unreachable },
			WorkerConfig{MaxRetries: 1, InitialInterval: time.Millisecond},
			zap.NewNop(),
		)
		defer shutdownWorker(t, traceWorker)

		var metricMu sync.Mutex
		var metricBatches int
		metricWorker := NewExportWorker(
			"prometheus",
			func(ctx context.Context, batch []model.MetricPoint) error {
				metricMu.Lock()
				defer metricMu.Unlock()
				metricBatches++
				return nil
			},
			WorkerConfig{InitialInterval: time.Millisecond},
			zap.NewNop(),
		)
		defer shutdownWorker(t, metricWorker)

		for i := 0; i < 5; i++ {
			traceWorker.Enqueue([]model.Span{{SpanID: "span"}})
			metricWorker.Enqueue([]model.MetricPoint{{Name: "cart_requests_total"}})
		}

		waitForCount(t, metricWorker.ExportedBatches, 5)
		waitForCount(t, traceWorker.FailedBatches, 5)

		metricMu.Lock()
		delivered := metricBatches
		metricMu.Unlock()
		assert.Equal(t, 5, delivered)
		assert.Equal(t, int64(0), metricWorker.FailedBatches())
		assert.Equal(t, int64(0), metricWorker.DroppedBatches())
		assert.Equal(t, int64(0), traceWorker.ExportedBatches())
	})
}

func waitForCount(t *testing.T, observe func() int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if observe() >= want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for count %d, have %d", want, observe())
}

func shutdownWorker[ValueType any](t *testing.T, worker *ExportWorker[ValueType]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, worker.Shutdown(ctx))
}

type captureSink struct {
	mu           sync.Mutex
	batches      [][]model.Span
	attempts     int
	failuresLeft int
	alwaysFail   bool
}

func newCaptureSink() *captureSink {
	return &captureSink{}
}

func (s *captureSink) failNext(failures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failuresLeft = failures
}

func (s *captureSink) failAlways() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alwaysFail = true
}

func (s *captureSink) export(_ context.Context, batch []model.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.alwaysFail {
		return errors.New("sink unavailable")
	}
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return errors.New("sink unavailable")
	}
	s.batches = append(s.batches, batch)
	return nil
}

func (s *captureSink) exportedBatches() [][]model.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	batches := make([][]model.Span, len(s.batches))
	copy(batches, s.batches)
	return batches
}

func (s *captureSink) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

type blockingSink struct {
	entered  chan struct{}
	released chan struct{}
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		entered:  make(chan struct{}, 16),
		released: make(chan struct{}),
	}
}

func (s *blockingSink) export(_ context.Context, _ []model.Span) error {
	s.entered <- struct{}{}
	<-s.released
	return nil
}

func (s *blockingSink) awaitExport(t *testing.T) {
	t.Helper()
	select {
	case <-s.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the sink to start exporting")
	}
}

func (s *blockingSink) release() {
	close(s.released)
}
