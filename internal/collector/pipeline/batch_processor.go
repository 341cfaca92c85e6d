package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// BatchProcessor accumulates items into bounded batches and hands each
// completed batch to a flush callback. A batch completes when it reaches the
// size threshold or when the age ticker fires with items waiting, whichever
// comes first.
type BatchProcessor[ValueType any] interface {
	Add(values []ValueType)
	Stop()
}

type BatchProcessorImpl[ValueType any] struct {
	size    int
	timeout time.Duration
	onFlush func(batch []ValueType)
	logger  *zap.Logger

	mu    sync.Mutex
	batch []ValueType

	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped atomic.Bool
}

func NewBatchProcessorImpl[ValueType any](
	size int,
	timeout time.Duration,
	onFlush func(batch []ValueType),
	logger *zap.Logger,
) *BatchProcessorImpl[ValueType] {
	processor := &BatchProcessorImpl[ValueType]{
		size:    size,
		timeout: timeout,
		onFlush: onFlush,
		logger:  logger,
		batch:   make([]ValueType, 0, size),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go processor.run()
	return processor
}

// Add appends values to the current batch, flushing inline when the size
// threshold is reached. The flush callback runs outside the batch lock so
// concurrent producers are only ever serialized on the append itself.
func (b *BatchProcessorImpl[ValueType]) Add(values []ValueType) {
	if len(values) == 0 {
		return
	}
	var full []ValueType
	b.mu.Lock()
	b.batch = append(b.batch, values...)
	if len(b.batch) >= b.size {
		full = b.batch
		b.batch = make([]ValueType, 0, b.size)
	}
	b.mu.Unlock()
	if full != nil {
		b.onFlush(full)
	}
}

// Stop flushes whatever is pending and stops the age ticker. Further Add
// calls after Stop still accumulate but only size-triggered flushes run.
func (b *BatchProcessorImpl[ValueType]) Stop() {
	if !b.stopped.CompareAndSwap(false, true) {
		return
	}
	close(b.stopCh)
	<-b.doneCh
	b.flushPending()
}

func (b *BatchProcessorImpl[ValueType]) run() {
	defer close(b.doneCh)
	ticker := time.NewTicker(b.timeout)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.flushPending()
		case <-b.stopCh:
			return
		}
	}
}

func (b *BatchProcessorImpl[ValueType]) flushPending() {
	b.mu.Lock()
	pending := b.batch
	b.batch = make([]ValueType, 0, b.size)
	b.mu.Unlock()
	if len(pending) > 0 {
		b.onFlush(pending)
	}
}
