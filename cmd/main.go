package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/events"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/http/api"
	service "github.com/dev-tnsq/spacelink-sub000/internal/app"
	"github.com/dev-tnsq/spacelink-sub000/internal/config"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	engineStatsInterval   = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection; the engine reports its own
	// system gauges on the custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Local development convenience; absence of a .env file is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("logger sync failed: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.JWTSecret == "" {
		os.Stderr.WriteString("SPACELINK_JWT_SECRET must be set\n")
		return
	}

	currencies := make([]types.Currency, 0, len(cfg.Currencies))
	for _, c := range cfg.Currencies {
		currencies = append(currencies, types.Currency(c))
	}
	minDur, maxDur := cfg.PassDurationBounds()

	bus := events.NewBus()
	engine := service.New(
		service.WithLogger(log),
		service.WithBus(bus),
		service.WithAdmin(types.Identity(cfg.Admin)),
		service.WithNativeCurrency(types.Currency(cfg.NativeCurrency)),
		service.WithCurrencies(currencies...),
		service.WithMinStakes(cfg.MinStationStake, cfg.MinSatelliteStake),
		service.WithRelayReward(cfg.RelayReward),
		service.WithElementMaxAge(cfg.ElementMaxAge()),
		service.WithLockWindow(cfg.LockWindow()),
		service.WithPassDurationBounds(minDur, maxDur),
	)
	if err := engine.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start engine: " + err.Error() + "\n")
		return
	}
	defer engine.Stop()

	go startSystemMetricsUpdater(ctx)
	go startEngineStatsUpdater(ctx, engine)

	mux := http.NewServeMux()
	apiServer := api.NewServer(
		engine,
		api.NewAuthenticator([]byte(cfg.JWTSecret)),
		events.NewFeed(bus, logger.Named("feed")),
	)
	apiServer.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater periodically refreshes process-level gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

// startEngineStatsUpdater keeps the event gauges current between requests.
func startEngineStatsUpdater(ctx context.Context, engine *service.Engine) {
	ticker := time.NewTicker(engineStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := engine.Stats()
			metrics.UpdateEventsDropped(stats.EventsDropped)
			metrics.UpdateLoansOutstanding(stats.Loans)
		}
	}
}
