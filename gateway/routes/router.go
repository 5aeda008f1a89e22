package routes

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"farmchain/gateway/middleware"
	"farmchain/native/farm"
)

// RateLimitKey is the limiter group applied to the farm read endpoints.
const RateLimitKey = "farm"

// Reader is the read-only view of the farm served over HTTP.
type Reader interface {
	Initialized() bool
	Owner() [20]byte
	NativeToken() [20]byte
	RewardPerSecond() *big.Int
	StartTime() uint64
	TotalWeight() uint64
	BlockTimestamp() uint64
	GetAllPoolsLength() uint64
	PoolInfo(poolIndex uint64) (*farm.Pool, error)
	UserInfo(poolIndex uint64, depositor [20]byte) (*farm.Position, error)
	PendingReward(poolIndex uint64, depositor [20]byte) (*big.Int, error)
	Totals() farm.Totals
	StateRoot() (common.Hash, error)
}

// Source returns a farm view whose ambient clock is set to at.
type Source func(ctx context.Context, at uint64) (Reader, error)

type Config struct {
	Source        Source
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Metrics       http.Handler
	Tracing       bool
	Logger        *slog.Logger
	Now           func() time.Time
}

func New(cfg Config) (http.Handler, error) {
	if cfg.Source == nil {
		return nil, errors.New("routes: farm source required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = promhttp.Handler()
	}
	api := &farmRoutes{source: cfg.Source, logger: cfg.Logger, now: cfg.Now}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", cfg.Metrics)

	r.Group(func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware(RateLimitKey))
		}
		if cfg.Observability != nil {
			sr.Use(cfg.Observability.Middleware("farm"))
		}
		sr.Get("/farm", api.handleFarm)
		sr.Get("/totals", api.handleTotals)
		sr.Get("/pools", api.handlePools)
		sr.Get("/pools/{pid}", api.handlePool)
		sr.Get("/pools/{pid}/positions/{addr}", api.handlePosition)
		sr.Get("/pools/{pid}/pending/{addr}", api.handlePending)
	})

	if cfg.Tracing {
		return otelhttp.NewHandler(r, "farm-gateway"), nil
	}
	return r, nil
}
