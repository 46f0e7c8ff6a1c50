// Command dinewise serves restaurant discovery over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/app"
	"github.com/kailas-cloud/dinewise/internal/config"
	"github.com/kailas-cloud/dinewise/internal/db"
	"github.com/kailas-cloud/dinewise/internal/db/memory"
	dbRedis "github.com/kailas-cloud/dinewise/internal/db/redis"
	logpkg "github.com/kailas-cloud/dinewise/internal/logger"
	"github.com/kailas-cloud/dinewise/internal/metrics"
	"github.com/kailas-cloud/dinewise/internal/repository/candcache"
	chiTransport "github.com/kailas-cloud/dinewise/internal/transport/chi"
	"github.com/kailas-cloud/dinewise/internal/transport/places"
	"github.com/kailas-cloud/dinewise/internal/usecase/ledger"
	"github.com/kailas-cloud/dinewise/internal/usecase/ranking"
	"github.com/kailas-cloud/dinewise/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, &cfg, logger)
	stop()
	if err != nil {
		logger.Error("dinewise exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting dinewise",
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Store ready")

	metrics.RegisterHTTPMetrics()
	metrics.RegisterDiscoveryMetrics()

	gateway, err := places.New(ctx, gatewayConfig(cfg, logger.Named("places")))
	if err != nil {
		return fmt.Errorf("places gateway: %w", err)
	}

	a, err := app.Build(ctx, settingsFromConfig(cfg), store, gateway, logger)
	if err != nil {
		return fmt.Errorf("assemble discovery: %w", err)
	}
	defer a.Close()
	logger.Info("Discovery ready",
		zap.Float64("daily_cost_limit", cfg.Governor.DailyCostLimit),
		zap.Int("window_limit", cfg.Governor.WindowLimit),
		zap.String("mode", string(a.Governor.Mode())),
	)

	api := chiTransport.NewServer(chiTransport.Services{
		Discovery:   a.Discovery,
		Usage:       a.Usage,
		Health:      a.Health,
		Events:      a.Events,
		Profiles:    a.Profiles,
		Annotations: a.Annotations,
		Spend:       a.Spend,
	}, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           api.Handler(cfg.Auth.APIKeys),
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	// Closing the broker ends open event streams so Shutdown does not wait on them.
	a.Close()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("Stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Database.Driver {
	case "memory":
		store = memory.NewStore()
	default:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	return store, nil
}

func gatewayConfig(cfg *config.Config, logger *zap.Logger) *places.Config {
	p := cfg.Places
	return &places.Config{
		APIKey:         p.APIKey,
		Endpoint:       p.Endpoint,
		MaxResults:     p.MaxResults,
		CostPerCall:    p.CostPerCall,
		RequestsPerSec: p.RequestsPerSecond,
		Burst:          p.Burst,
		MaxRetries:     p.MaxRetries,
		BaseBackoff:    time.Duration(p.BaseBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(p.MaxBackoffMs) * time.Millisecond,
		AttemptTimeout: time.Duration(p.AttemptTimeoutSec) * time.Second,
		Logger:         logger,
	}
}

func settingsFromConfig(cfg *config.Config) app.Settings {
	// Validated by config.Load.
	loc, _ := cfg.Governor.Location()

	return app.Settings{
		Ledger: ledger.Config{
			WindowLimit:    cfg.Governor.WindowLimit,
			Window:         time.Duration(cfg.Governor.WindowSec) * time.Second,
			DailyCostLimit: cfg.Governor.DailyCostLimit,
			ResetHour:      cfg.Governor.ResetHour,
			Location:       loc,
		},
		AdvisoryFraction: cfg.Governor.AdvisoryFraction,
		Cache: candcache.Config{
			MaxEntries:     cfg.Cache.MaxEntries,
			TTL:            time.Duration(cfg.Cache.TTLHours) * time.Hour,
			StaleRetention: time.Duration(cfg.Cache.StaleRetentionHours) * time.Hour,
		},
		Weights: cfg.Scoring.Weights(),
		Ranking: ranking.Config{
			MinResults:     cfg.Ranking.MinResults,
			TopN:           cfg.Ranking.TopN,
			RadiusGrowth:   cfg.Ranking.RadiusGrowth,
			MaxRadius:      cfg.Ranking.MaxRadius,
			MaxRadiusSteps: cfg.Ranking.MaxRadiusSteps,
			PriceEstimates: cfg.Ranking.PriceEstimates,
		},
		EventBuffer: cfg.Events.Buffer,
	}
}
