package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Avi18971911/Emporium/internal/collector/config"
	archivestore "github.com/Avi18971911/Emporium/internal/collector/elasticsearch"
	"github.com/Avi18971911/Emporium/internal/collector/event_bus"
	"github.com/Avi18971911/Emporium/internal/collector/exporter"
	"github.com/Avi18971911/Emporium/internal/collector/model"
	"github.com/Avi18971911/Emporium/internal/collector/pipeline"
	"github.com/Avi18971911/Emporium/internal/collector/router"
	"github.com/Avi18971911/Emporium/internal/collector/server"
	"github.com/asaskevich/EventBus"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	protoMetrics "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	_ "google.golang.org/grpc/encoding/gzip"
)

const shutdownGracePeriod = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the collector configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.ReadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to read collector configuration", zap.Error(err))
	}

	metricsExporter := exporter.NewPrometheusExporter()
	prometheus.MustRegister(metricsExporter)

	bus := EventBus.New()
	spanBus := event_bus.NewTelemetryEventBus[[]model.Span, []model.Span](bus, logger)
	pointBus := event_bus.NewTelemetryEventBus[[]model.MetricPoint, []model.MetricPoint](bus, logger)

	limiter := pipeline.NewMemoryLimiter(cfg.Limits.MaxInFlightItems, nil)
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "collector_inflight_items",
		Help: "Telemetry items currently buffered between receive and batch flush.",
	}, func() float64 {
		return float64(limiter.InFlight())
	}))

	enricher := pipeline.NewEnricher(enrichmentAttributes(cfg))
	telemetryPipeline := pipeline.NewTelemetryPipelineImpl(
		limiter,
		enricher,
		spanBus,
		pointBus,
		cfg.Batch.Size,
		cfg.Batch.Timeout,
		logger,
	)

	workerConfig := exporter.WorkerConfig{
		QueueSize:       cfg.Queue.Size,
		MaxRetries:      cfg.Retry.MaxRetries,
		InitialInterval: cfg.Retry.InitialInterval,
	}

	var spanWorkers []*exporter.ExportWorker[model.Span]
	var pointWorkers []*exporter.ExportWorker[model.MetricPoint]
	var closers []func()

	pointWorkers = append(pointWorkers, exporter.NewExportWorker(
		"prometheus", metricsExporter.ExportPoints, workerConfig, logger,
	))

	if cfg.Exporters.TraceForward.Enabled {
		conn, err := grpc.NewClient(
			cfg.Exporters.TraceForward.Address,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			logger.Fatal("Failed to connect to the downstream trace store", zap.Error(err))
		}
		closers = append(closers, func() { _ = conn.Close() })
		forwarder := exporter.NewOTLPTraceForwarder(conn)
		spanWorkers = append(spanWorkers, exporter.NewExportWorker(
			"forwarder", forwarder.ExportSpans, workerConfig, logger,
		))
	}

	if cfg.Exporters.Elasticsearch.Enabled {
		es, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.Exporters.Elasticsearch.Addresses,
		})
		if err != nil {
			logger.Fatal("Failed to create elasticsearch client", zap.Error(err))
		}
		bs := archivestore.NewBootstrapper(es, logger)
		if err := bs.BootstrapElasticsearch(cfg.Exporters.Elasticsearch.SpanIndex); err != nil {
			logger.Fatal("Failed to bootstrap elasticsearch", zap.Error(err))
		}
		archiveClient := archivestore.NewArchiveClientImpl(es, archivestore.Async)
		archiveExporter := exporter.NewArchiveExporter(archiveClient, cfg.Exporters.Elasticsearch.SpanIndex)
		spanWorkers = append(spanWorkers, exporter.NewExportWorker(
			"archive", archiveExporter.ExportSpans, workerConfig, logger,
		))
	}

	if cfg.Exporters.Debug.Enabled {
		debugExporter := exporter.NewDebugExporter(logger)
		spanWorkers = append(spanWorkers, exporter.NewExportWorker(
			"debug_traces", debugExporter.ExportSpans, workerConfig, logger,
		))
		pointWorkers = append(pointWorkers, exporter.NewExportWorker(
			"debug_metrics", debugExporter.ExportPoints, workerConfig, logger,
		))
	}

	for _, worker := range spanWorkers {
		err := spanBus.Subscribe(pipeline.TopicSpanBatches, func(batch []model.Span) error {
			worker.Enqueue(batch)
			return nil
		}, false)
		if err != nil {
			logger.Fatal("Failed to subscribe exporter to span batches", zap.Error(err))
		}
	}
	for _, worker := range pointWorkers {
		err := pointBus.Subscribe(pipeline.TopicMetricBatches, func(batch []model.MetricPoint) error {
			worker.Enqueue(batch)
			return nil
		}, false)
		if err != nil {
			logger.Fatal("Failed to subscribe exporter to metric batches", zap.Error(err))
		}
	}

	listener, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}

	grpcServer := grpc.NewServer()
	protoTrace.RegisterTraceServiceServer(grpcServer, server.NewTraceServiceServerImpl(logger, telemetryPipeline))
	protoMetrics.RegisterMetricsServiceServer(grpcServer, server.NewMetricsServiceServerImpl(logger, telemetryPipeline))

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddress,
		Handler: router.CreateRouter(),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info(
			"gRPC service started, listening for OpenTelemetry traces and metrics...",
			zap.String("address", cfg.Server.GRPCAddress),
		)
		if err := grpcServer.Serve(listener); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info(
			"HTTP server started, serving the scrape and health endpoints",
			zap.String("address", cfg.Server.HTTPAddress),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	grpcServer.GracefulStop()
	telemetryPipeline.Shutdown()
	bus.WaitAsync()

	var drainGroup errgroup.Group
	for _, worker := range spanWorkers {
		worker := worker
		drainGroup.Go(func() error { return worker.Shutdown(shutdownCtx) })
	}
	for _, worker := range pointWorkers {
		worker := worker
		drainGroup.Go(func() error { return worker.Shutdown(shutdownCtx) })
	}
	if err := drainGroup.Wait(); err != nil {
		logger.Warn("An exporter did not drain before the grace period expired", zap.Error(err))
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shut down the HTTP server", zap.Error(err))
	}
	for _, closeConnection := range closers {
		closeConnection()
	}
	logger.Info("Collector stopped")
}

// enrichmentAttributes combines the configured enrichment attributes with
// the collector's hostname, so every item records which collector instance
// processed it.
func enrichmentAttributes(cfg *config.Config) map[string]string {
	attributes := make(map[string]string, len(cfg.Enrichment.Attributes)+1)
	for key, value := range cfg.Enrichment.Attributes {
		attributes[key] = value
	}
	if _, ok := attributes["collector.hostname"]; !ok {
		if hostname, err := os.Hostname(); err == nil {
			attributes["collector.hostname"] = hostname
		}
	}
	return attributes
}
