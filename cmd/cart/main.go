package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Avi18971911/Emporium/internal/cart/config"
	"github.com/Avi18971911/Emporium/internal/cart/router"
	"github.com/Avi18971911/Emporium/internal/cart/service"
	"github.com/Avi18971911/Emporium/internal/cart/store"
	productClient "github.com/Avi18971911/Emporium/internal/productcatalog/client"
	"github.com/Avi18971911/Emporium/internal/telemetry"
	"github.com/Avi18971911/Emporium/internal/telemetry/middleware"
	"go.uber.org/zap"
)

const (
	serviceName         = "cart"
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

	serverMetrics, err := middleware.NewServerMetrics(provider.Registry, "cart")
	if err != nil {
		logger.Fatal("Failed to register request instruments", zap.Error(err))
	}

	itemsTotal, err := provider.Registry.GetOrCreateUpDownCounter(
		"cart_items_total",
		"1",
		"Total number of items in all carts",
	)
	if err != nil {
		logger.Fatal("Failed to register the cart items instrument", zap.Error(err))
	}

	cartStore := store.NewCartStoreImpl(store.CartStoreConfig{
		TTL:              cfg.CartTTL,
		EvictionInterval: cfg.EvictionInterval,
		OnEvict: func(removedQuantity int) {
			itemsTotal.Add(-float64(removedQuantity), nil)
		},
	}, logger)

	httpClient := middleware.NewHTTPClient(&http.Client{}, provider.Tracer)
	catalogClient := productClient.NewProductCatalogClientImpl(cfg.ProductCatalogUrl, httpClient)

	cartService := service.NewCartServiceImpl(
		cartStore,
		catalogClient,
		provider.Tracer,
		itemsTotal,
		logger,
	)

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: router.CreateRouter(cartService, provider.Tracer, serverMetrics, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Cart service started", zap.String("address", cfg.Address))
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
	cartStore.Stop()
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to flush telemetry", zap.Error(err))
	}
	logger.Info("Cart service stopped")
}
