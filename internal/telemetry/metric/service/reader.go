package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultCollectInterval     = 5 * time.Second
	defaultMetricExportTimeout = 10 * time.Second
)

type ReaderConfig struct {
	// CollectInterval is how often the registry is collected and exported.
	CollectInterval time.Duration
	// ExportTimeout bounds a single export call.
	ExportTimeout time.Duration
	// OnExportError, when set, is called once per failed export.
	OnExportError func()
}

func (c ReaderConfig) withDefaults() ReaderConfig {
	if c.CollectInterval <= 0 {
		c.CollectInterval = DefaultCollectInterval
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = defaultMetricExportTimeout
	}
	return c
}

// PeriodicReader collects the registry on a fixed interval and hands the
// snapshots to a MetricExporter on a background worker, keeping metric
// recording free of network I/O.
type PeriodicReader struct {
	config   ReaderConfig
	registry *Registry
	exporter MetricExporter
	logger   *zap.Logger

	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped atomic.Bool

	failedExports atomic.Int64
}

func NewPeriodicReader(
	registry *Registry,
	exporter MetricExporter,
	config ReaderConfig,
	logger *zap.Logger,
) *PeriodicReader {
	reader := &PeriodicReader{
		config:   config.withDefaults(),
		registry: registry,
		exporter: exporter,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go reader.run()
	return reader
}

// FailedExports reports how many collection exports were abandoned after an
// exporter error.
func (r *PeriodicReader) FailedExports() int64 {
	return r.failedExports.Load()
}

// Shutdown performs a final collection, flushes it and stops the worker.
func (r *PeriodicReader) Shutdown(ctx context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stopCh)
	select {
	case <-r.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.exporter.Shutdown(ctx)
}

func (r *PeriodicReader) run() {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.config.CollectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.collectAndExport()
		case <-r.stopCh:
			r.collectAndExport()
			return
		}
	}
}

func (r *PeriodicReader) collectAndExport() {
	snapshots := r.registry.Collect(time.Now())
	if len(snapshots) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.config.ExportTimeout)
	defer cancel()
	if err := r.exporter.Export(ctx, snapshots); err != nil {
		r.failedExports.Add(1)
		if r.config.OnExportError != nil {
			r.config.OnExportError()
		}
		r.logger.Error(
			"Failed to export metric snapshots",
			zap.Int("snapshot_count", len(snapshots)),
			zap.Error(err),
		)
	}
}
