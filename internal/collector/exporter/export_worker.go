package exporter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	DefaultQueueSize       = 64
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 250 * time.Millisecond
	defaultExportTimeout   = 10 * time.Second
)

// ExportFunc delivers one batch to a sink.
type ExportFunc[ValueType any] func(ctx context.Context, batch []ValueType) error

type WorkerConfig struct {
	// QueueSize bounds the batches waiting on this exporter. A full queue
	// drops the newest batch with a counted drop.
	QueueSize int
	// MaxRetries is the retry budget per batch after the first failure;
	// once spent the batch is dropped with a counted failure.
	MaxRetries      uint64
	InitialInterval time.Duration
	ExportTimeout   time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = defaultExportTimeout
	}
	return c
}

// ExportWorker drains one exporter's bounded batch queue on its own
// goroutine. Each exporter gets its own worker, so a slow or failing sink
// backs up only its own queue while the others keep delivering.
type ExportWorker[ValueType any] struct {
	name   string
	export ExportFunc[ValueType]
	config WorkerConfig
	logger *zap.Logger

	queue   chan []ValueType
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped atomic.Bool

	exported atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

func NewExportWorker[ValueType any](
	name string,
	export ExportFunc[ValueType],
	config WorkerConfig,
	logger *zap.Logger,
) *ExportWorker[ValueType] {
	config = config.withDefaults()
	worker := &ExportWorker[ValueType]{
		name:   name,
		export: export,
		config: config,
		logger: logger,
		queue:  make(chan []ValueType, config.QueueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go worker.run()
	return worker
}

// Enqueue hands a batch to the worker without blocking the caller. When the
// queue is full the batch is dropped and counted.
func (w *ExportWorker[ValueType]) Enqueue(batch []ValueType) {
	if len(batch) == 0 || w.stopped.Load() {
		return
	}
	select {
	case w.queue <- batch:
	default:
		w.dropped.Add(1)
		metrics.QueueDroppedBatches.WithLabelValues(w.name).Inc()
		w.logger.Warn(
			"Dropping batch on full exporter queue",
			zap.String("exporter", w.name),
			zap.Int("batch_size", len(batch)),
		)
	}
}

// Shutdown stops the worker after a best-effort drain of queued batches,
// bounded by ctx.
func (w *ExportWorker[ValueType]) Shutdown(ctx context.Context) error {
	if !w.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(w.stopCh)
	select {
	case <-w.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExportedBatches reports how many batches were delivered.
func (w *ExportWorker[ValueType]) ExportedBatches() int64 {
	return w.exported.Load()
}

// FailedBatches reports how many batches were dropped after exhausting the
// retry budget.
func (w *ExportWorker[ValueType]) FailedBatches() int64 {
	return w.failed.Load()
}

// DroppedBatches reports how many batches were shed on a full queue.
func (w *ExportWorker[ValueType]) DroppedBatches() int64 {
	return w.dropped.Load()
}

func (w *ExportWorker[ValueType]) run() {
	defer close(w.doneCh)
	for {
		select {
		case batch := <-w.queue:
			w.exportBatch(batch)
		case <-w.stopCh:
			w.drain()
			return
		}
	}
}

func (w *ExportWorker[ValueType]) drain() {
	for {
		select {
		case batch := <-w.queue:
			w.exportBatch(batch)
		default:
			return
		}
	}
}

func (w *ExportWorker[ValueType]) exportBatch(batch []ValueType) {
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), w.config.ExportTimeout)
		defer cancel()
		return w.export(ctx, batch)
	}
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = w.config.InitialInterval
	err := backoff.Retry(operation, backoff.WithMaxRetries(exponential, w.config.MaxRetries))
	if err != nil {
		w.failed.Add(1)
		metrics.ExportFailedBatches.WithLabelValues(w.name).Inc()
		w.logger.Error(
			"Dropping batch after exhausting the retry budget",
			zap.String("exporter", w.name),
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		return
	}
	w.exported.Add(1)
	metrics.ExportedBatches.WithLabelValues(w.name).Inc()
}
