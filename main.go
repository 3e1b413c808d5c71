package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appCart "github.com/patria-foods/storefront/internal/application/cart"
	appCheckout "github.com/patria-foods/storefront/internal/application/checkout"
	appOrder "github.com/patria-foods/storefront/internal/application/order"
	domainCart "github.com/patria-foods/storefront/internal/domain/cart"
	domainCatalog "github.com/patria-foods/storefront/internal/domain/catalog"
	domainOrder "github.com/patria-foods/storefront/internal/domain/order"
	"github.com/patria-foods/storefront/internal/infrastructure/id"
	"github.com/patria-foods/storefront/internal/infrastructure/memory"
	"github.com/patria-foods/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/patria-foods/storefront/internal/infrastructure/observability/prometrics"
	"github.com/patria-foods/storefront/internal/infrastructure/observability/telemetry"
	"github.com/patria-foods/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/patria-foods/storefront/internal/infrastructure/payments"
	"github.com/patria-foods/storefront/internal/infrastructure/postgres"
	infraRealtime "github.com/patria-foods/storefront/internal/infrastructure/realtime"
	"github.com/patria-foods/storefront/internal/observability"
	"github.com/patria-foods/storefront/internal/pkg/config"
	httppresentation "github.com/patria-foods/storefront/internal/presentation/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if s, ok := baseLogger.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	if err := config.Watch(func(fresh *config.Config) {
		baseLogger.Info("config_reloaded", observability.F("env", fresh.Env))
	}); err != nil {
		baseLogger.Warn("config_watch_failed", observability.F("error", err))
	}

	registry := prometrics.New("storefront", "")
	counters := map[string]observability.Counter{
		observability.MHTTPRequests: registry.Counter(
			observability.MHTTPRequests, "Total HTTP requests.", "method", "route", "status"),
		observability.MCheckoutRequests: registry.Counter(
			observability.MCheckoutRequests, "Checkout attempts by method and outcome.", "method", "outcome"),
		observability.MOrdersCreated: registry.Counter(
			observability.MOrdersCreated, "Orders created, by payment method.", "payment_method"),
		observability.MEventPublishFailed: registry.Counter(
			observability.MEventPublishFailed, "Realtime event publish failures.", "event"),
	}
	histograms := map[string]observability.Histogram{
		observability.MHTTPRequestDuration: registry.Histogram(
			observability.MHTTPRequestDuration, "HTTP request duration in seconds.",
			prometheus.DefBuckets, "method", "route", "status"),
	}
	tel := telemetry.New(oteltrace.New("storefront"), baseLogger, counters, histograms)

	bus := infraRealtime.NewBus(baseLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var (
		cartRepo    domainCart.Repository
		productRepo domainCatalog.Repository
		orderRepo   domainOrder.Repository
	)
	if dsn := cfg.DatabaseDSN(); dsn != "" {
		db, err := postgres.Open(dsn)
		if err != nil {
			baseLogger.Error("postgres_open_failed", observability.F("error", err))
			os.Exit(1)
		}
		cartRepo = postgres.NewCartRepository(db)
		productRepo = postgres.NewProductRepository(db)
		orderRepo = postgres.NewOrderRepository(db)
		baseLogger.Info("storage_ready", observability.F("backend", "postgres"))
	} else {
		cartRepo = memory.NewCartRepository()
		productRepo = memory.NewProductRepository()
		orderRepo = memory.NewOrderRepository()
		baseLogger.Warn("storage_ready_in_memory_only")
	}

	idGenerator := id.NewGenerator()

	cartService := appCart.NewService(cartRepo, productRepo, idGenerator, bus, baseLogger, tel)
	orderService := appOrder.NewService(orderRepo, productRepo, idGenerator, idGenerator, bus, baseLogger, tel)

	charger := payments.NewStripeCharger(cfg.StripeSecretKey, baseLogger)
	confirmer := payments.NewPayPalConfirmer(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret, baseLogger)
	checkoutService := appCheckout.NewService(orderService, cartService, charger, confirmer, baseLogger, tel)

	handler := httppresentation.NewHandler(cartService, orderService, checkoutService, bus, idGenerator, baseLogger, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", observability.F("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
