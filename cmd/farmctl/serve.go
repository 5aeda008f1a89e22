package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"farmchain/gateway/middleware"
	"farmchain/gateway/routes"
	"farmchain/native/farm"
	"farmchain/observability/metrics"
	telemetry "farmchain/observability/otel"
	"farmchain/storage"
)

func runServe(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "serve")
	listen := fs.String("listen", "", "Listen address (default: http.ListenAddress)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := loadConfig(env, *flags.configPath)
	if err != nil {
		return err
	}
	logger = logger.With(slog.String("component", "gateway"))
	booster, err := buildBooster(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "farm-gateway",
		Environment: cfg.Log.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	handler, err := routes.New(routes.Config{
		Source: storeSource(cfg.DataDir, booster),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			routes.RateLimitKey: {RatePerSecond: cfg.HTTP.RequestsPerSecond, Burst: cfg.HTTP.Burst},
		}, logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "farm-gateway",
			LogRequests: true,
		}, logger),
		Tracing: cfg.Telemetry.Endpoint != "",
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	addr := cfg.HTTP.ListenAddress
	if *listen != "" {
		addr = *listen
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("farm gateway listening", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("farm gateway shutting down")
	return server.Shutdown(shutdownCtx)
}

// storeSource opens the state database for the duration of each request so
// farmctl commands can commit between requests. Every request reads its own
// engine copy; opens are serialised because LevelDB holds a process lock.
func storeSource(dataDir string, booster farm.Booster) routes.Source {
	var mu sync.Mutex
	return func(_ context.Context, at uint64) (routes.Reader, error) {
		mu.Lock()
		defer mu.Unlock()
		db, err := storage.NewLevelDB(dataDir)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		engine, err := farm.LoadEngine(db, booster)
		if err != nil {
			return nil, err
		}
		engine.SetBlockTimestamp(at)
		publishPoolMetrics(engine)
		return engine, nil
	}
}

func publishPoolMetrics(engine *farm.Engine) {
	m := metrics.Farm()
	m.SetPools(engine.GetAllPoolsLength())
	for i := uint64(0); i < engine.GetAllPoolsLength(); i++ {
		pool, err := engine.PoolInfo(i)
		if err != nil {
			return
		}
		m.SetPoolState(i, pool.TotalStaked, pool.AccRewardPerShare)
	}
}
