package dinewise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/app"
	"github.com/kailas-cloud/dinewise/internal/db"
	"github.com/kailas-cloud/dinewise/internal/db/memory"
	dbRedis "github.com/kailas-cloud/dinewise/internal/db/redis"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	"github.com/kailas-cloud/dinewise/internal/repository/candcache"
	"github.com/kailas-cloud/dinewise/internal/transport/places"
	"github.com/kailas-cloud/dinewise/internal/usecase/advisory"
	"github.com/kailas-cloud/dinewise/internal/usecase/discovery"
	"github.com/kailas-cloud/dinewise/internal/usecase/ledger"
	"github.com/kailas-cloud/dinewise/internal/usecase/ranking"
)

// Defaults applied by New.
const (
	defaultReadinessTimeout = 10 * time.Second
	defaultWindowLimit      = 60
	defaultDailyCostLimit   = 5.0
)

// Internal interfaces, swapped out in tests.
type discoveryUseCase interface {
	Discover(ctx context.Context, req request.Request) (domrank.Result, error)
	Refresh(ctx context.Context, key string) error
}

type eventSource interface {
	Subscribe(kinds ...event.Kind) *advisory.Subscription
	Unsubscribe(id string) bool
}

type profileStore interface {
	Profile(ctx context.Context, userID string) (*profile.Profile, error)
	Save(ctx context.Context, p *profile.Profile) error
}

type annotationStore interface {
	Annotations(ctx context.Context, placeIDs []string) (map[string]candidate.Annotations, error)
	Put(ctx context.Context, placeID string, a candidate.Annotations) error
}

type spendStore interface {
	RemainingBudget(ctx context.Context, userID string, period request.Period) (float64, bool, error)
	SetBudget(ctx context.Context, userID string, period request.Period, budget, spent float64) error
}

// Client is the dinewise SDK entry point.
type Client struct {
	store        db.Store
	discoverySvc discoveryUseCase
	usageSvc     usageUseCase
	healthSvc    healthUseCase
	events       eventSource
	profiles     profileStore
	annotations  annotationStore
	spend        spendStore
	closeFn      func()
	obs          *observer
}

// New creates a Client, connects to the database and builds the places
// gateway. The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		windowLimit:    defaultWindowLimit,
		window:         time.Minute,
		dailyCostLimit: defaultDailyCostLimit,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if cfg.driver != "memory" && len(cfg.addrs) == 0 {
		return nil, errors.New("dinewise: address is required (use WithRedis or WithInMemoryStore)")
	}

	gw, err := places.New(ctx, &places.Config{
		APIKey:         cfg.placesKey,
		Endpoint:       cfg.placesEndpoint,
		CostPerCall:    cfg.costPerCall,
		RequestsPerSec: cfg.requestsPerSec,
		Burst:          cfg.burst,
		Logger:         cfg.logger.Named("places"),
	})
	if err != nil {
		return nil, fmt.Errorf("dinewise: %w", err)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("dinewise: database not ready: %w", err)
	}

	client, err := wireClient(ctx, store, gw, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return client, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return memory.NewStore(), nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("dinewise: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("dinewise: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, gw discovery.Gateway, cfg *clientConfig) (*Client, error) {
	weights := cfg.weights
	if weights == (score.Weights{}) {
		weights = score.DefaultWeights
	}

	a, err := app.Build(ctx, app.Settings{
		Ledger: ledger.Config{
			WindowLimit:    cfg.windowLimit,
			Window:         cfg.window,
			DailyCostLimit: cfg.dailyCostLimit,
			ResetHour:      cfg.resetHour,
			Location:       cfg.location,
		},
		Cache:   candcache.Config{MaxEntries: cfg.cacheSize, TTL: cfg.cacheTTL},
		Weights: weights,
		Ranking: ranking.Config{MinResults: cfg.minResults, TopN: cfg.topN},
	}, store, gw, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("dinewise: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		a.Close()
		return nil, err
	}

	return &Client{
		store:        store,
		discoverySvc: a.Discovery,
		usageSvc:     a.Usage,
		healthSvc:    a.Health,
		events:       a.Events,
		profiles:     a.Profiles,
		annotations:  a.Annotations,
		spend:        a.Spend,
		closeFn:      a.Close,
		obs:          obs,
	}, nil
}

// Close releases all resources and ends every event subscription.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
