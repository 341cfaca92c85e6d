package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartClient "github.com/Avi18971911/Emporium/internal/cart/client"
	"github.com/Avi18971911/Emporium/internal/frontend/config"
	"github.com/Avi18971911/Emporium/internal/frontend/router"
	"github.com/Avi18971911/Emporium/internal/frontend/service"
	productClient "github.com/Avi18971911/Emporium/internal/productcatalog/client"
	"github.com/Avi18971911/Emporium/internal/telemetry"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
	"go.uber.org/zap"
)

const (
	serviceName         = "frontend"
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

	serverMetrics, err := middleware.NewServerMetrics(provider.Registry, "frontend")
	if err != nil {
		logger.Fatal("Failed to register request instruments", zap.Error(err))
	}

	httpClient := middleware.NewHTTPClient(&http.Client{}, provider.Tracer)
	frontendService := service.NewFrontendServiceImpl(
		productClient.NewProductCatalogClientImpl(cfg.ProductCatalogUrl, httpClient),
		cartClient.NewCartClientImpl(cfg.CartUrl, httpClient),
		provider.Tracer,
		logger,
	)

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: router.CreateRouter(frontendService, provider.Tracer, serverMetrics, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Frontend started", zap.String("address", cfg.Address))
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
	logger.Info("Frontend stopped")
}
