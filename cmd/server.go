package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/addons"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/cache"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/config"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/customers"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/dispatcher"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/gateways"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/handlers"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/network"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/orders"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/persistence"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/refunds"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	sitesync "github.com/juancollazo-ch/woo-fluxc-service/internal/sync"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/taxes"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/webhook"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MAIN: inicializa servidor, workers y dependencias
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Reemplazar logger global
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		zap.L().Error("Server stopped unexpectedly", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Base local
	db, err := persistence.Open(persistence.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AutoMigrate(append([]any{&site.SiteEntity{}}, sitesync.Entities()...)...); err != nil {
		return err
	}

	// Cache de respuestas (enableCaching)
	responseCache, err := cache.New(ctx, cache.Config{
		Driver:        cfg.Cache.Driver,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return err
	}
	if closer, ok := responseCache.(io.Closer); ok {
		defer closer.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := network.NewClient(network.Options{
		Timeout:            cfg.Network.Timeout,
		UserAgent:          cfg.Network.UserAgent,
		WPComBaseURL:       cfg.Network.WPComBaseURL,
		RateLimitPerSecond: cfg.Network.RateLimitPerSecond,
		Burst:              cfg.Network.Burst,
		BreakerMaxFailures: cfg.Network.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Network.BreakerOpenTimeout,
		Cache:              responseCache,
		CacheTTL:           cfg.Cache.TTL,
		Metrics:            network.NewMetrics(registry),
		Logger:             logger,
	})

	// Bus de acciones
	pool := worker.NewWorkerPool(cfg.Dispatcher.Workers, cfg.Dispatcher.QueueSize, logger)
	pool.Start(context.Background())
	bus := dispatcher.New(pool, logger)

	if cfg.Webhook.URL != "" {
		sender := webhook.NewSender(webhook.Options{
			URL:       cfg.Webhook.URL,
			Attempts:  cfg.Webhook.Attempts,
			BaseDelay: cfg.Webhook.BaseDelay,
			Timeout:   cfg.Webhook.Timeout,
			Logger:    logger,
		})
		unsubscribe := bus.Subscribe(sender.Subscriber(context.WithoutCancel(ctx), dispatcher.EventOrderStatusChanged))
		defer unsubscribe()
		zap.L().Info("Webhook subscriber enabled")
	}

	gatewayDAO := gateways.NewDAO(db.DB)
	taxDAO := taxes.NewDAO(db.DB)
	refundDAO := refunds.NewDAO(db.DB)
	customerDAO := customers.NewDAO(db.DB)
	orderDAO := orders.NewDAO(db.DB)
	addonDAO := addons.NewDAO(db.DB)

	stores := sitesync.Stores{
		Gateways:  gateways.NewStore(client, gatewayDAO, logger),
		Taxes:     taxes.NewStore(client, taxDAO, logger),
		Customers: customers.NewStore(client, customerDAO, logger),
		Orders:    orders.NewStore(client, orderDAO, bus, logger),
		Addons:    addons.NewStore(client, addonDAO, logger),
	}

	deps := handlers.Dependencies{
		Sites:      site.NewDAO(db.DB),
		Gateways:   stores.Gateways,
		Taxes:      stores.Taxes,
		Refunds:    refunds.NewStore(client, refundDAO, logger),
		Customers:  stores.Customers,
		Orders:     stores.Orders,
		Addons:     stores.Addons,
		Syncer:     sitesync.NewSyncer(stores, logger),
		SiteData:   []sitesync.SiteDeleter{gatewayDAO, taxDAO, refundDAO, customerDAO, orderDAO, addonDAO},
		Dispatcher: bus,
		Metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Ping:       db.Ping,
		Logger:     logger,
	}
	handlers.RegisterActions(bus, deps)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("Server started", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// GRACEFUL SHUTDOWN
	select {
	case err := <-serverErr:
		pool.Stop()
		return err
	case <-ctx.Done():
	}

	zap.L().Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}
	// drena las acciones encoladas antes de cerrar la base
	pool.Stop()

	zap.L().Info("Server exited")
	return nil
}
