package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Avi18971911/Emporium/internal/productcatalog/config"
	"github.com/Avi18971911/Emporium/internal/productcatalog/repository"
	"github.com/Avi18971911/Emporium/internal/productcatalog/router"
	"github.com/Avi18971911/Emporium/internal/productcatalog/service"
	"github.com/Avi18971911/Emporium/internal/telemetry"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

const (
	serviceName         = "productcatalog"
	serviceVersion      = "1.0.0"
	shutdownGracePeriod = 10 * time.Second
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.ReadConfig()
	if err != nil {
		logger.Fatal("Failed to read configuration", zap.Error(err))
	}

	provider, err := telemetry.NewProvider(telemetry.Config{
		ServiceName:      serviceName,
		ServiceVersion:   serviceVersion,
		CollectorAddress: cfg.CollectorAddress,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	serverMetrics, err := middleware.NewServerMetrics(provider.Registry, "product")
	if err != nil {
		logger.Fatal("Failed to register request instruments", zap.Error(err))
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,     // number of keys to track frequency of (10k).
		MaxCost:     1 << 20, // maximum cost of cache (1MB).
		BufferItems: 64,      // number of keys per Get buffer.
	})
	if err != nil {
		logger.Fatal("Failed to create the search cache", zap.Error(err))
	}

	productService := service.NewProductServiceImpl(
		repository.NewProductRepositoryInMemory(),
		cache,
		provider.Tracer,
		logger,
	)

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: router.CreateRouter(productService, provider.Tracer, serverMetrics, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Product catalog started", zap.String("address", cfg.Address))
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

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shut down the HTTP server", zap.Error(err))
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to flush telemetry", zap.Error(err))
	}
	logger.Info("Product catalog stopped")
}
