// Package places is the search gateway to the Google Places API (New).
package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	placesapi "google.golang.org/api/places/v1"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/metrics"
	"github.com/kailas-cloud/dinewise/internal/version"
)

// Retry and timeout defaults.
const (
	DefaultMaxRetries     = 3
	DefaultBaseBackoff    = 200 * time.Millisecond
	DefaultMaxBackoff     = 2 * time.Second
	DefaultAttemptTimeout = 10 * time.Second
	DefaultMaxResults     = 20
	DefaultCostPerCall    = 0.032
)

// fieldMask is the minimal billed field set needed for scoring.
var fieldMask = []string{
	"places.id",
	"places.displayName",
	"places.location",
	"places.priceLevel",
	"places.types",
	"places.rating",
	"places.userRatingCount",
	"places.currentOpeningHours.openNow",
	"places.servesVegetarianFood",
}

// Query is one nearby search.
type Query struct {
	Origin       geo.Point
	RadiusMeters int
}

// Config holds gateway settings.
type Config struct {
	APIKey         string
	Endpoint       string // empty = production endpoint
	MaxResults     int
	CostPerCall    float64
	RequestsPerSec float64
	Burst          int
	MaxRetries     int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration
	Logger         *zap.Logger
}

// Gateway fetches raw candidates from the provider.
type Gateway struct {
	svc            *placesapi.Service
	limiter        *rate.Limiter
	maxResults     int64
	costPerCall    float64
	maxRetries     int
	baseBackoff    time.Duration
	maxBackoff     time.Duration
	attemptTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	logger         *zap.Logger
}

// New creates a gateway. A missing API key is ErrInvalidConfiguration.
func New(ctx context.Context, cfg *Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("places api key is required: %w", domain.ErrInvalidConfiguration)
	}

	opts := []option.ClientOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithUserAgent(version.UserAgent()),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := placesapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create places client: %w", errors.Join(err, domain.ErrInvalidConfiguration))
	}

	g := &Gateway{
		svc:            svc,
		maxResults:     int64(orDefault(cfg.MaxResults, DefaultMaxResults)),
		costPerCall:    cfg.CostPerCall,
		maxRetries:     orDefault(cfg.MaxRetries, DefaultMaxRetries),
		baseBackoff:    orDefault(cfg.BaseBackoff, DefaultBaseBackoff),
		maxBackoff:     orDefault(cfg.MaxBackoff, DefaultMaxBackoff),
		attemptTimeout: orDefault(cfg.AttemptTimeout, DefaultAttemptTimeout),
		sleep:          sleepCtx,
		logger:         cfg.Logger,
	}
	if g.costPerCall <= 0 {
		g.costPerCall = DefaultCostPerCall
	}
	if cfg.MaxRetries < 0 {
		g.maxRetries = 0
	}
	if cfg.RequestsPerSec > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), max(cfg.Burst, 1))
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g, nil
}

// EstimatedCost returns the billed cost of one Fetch. Retries are not billed separately.
func (g *Gateway) EstimatedCost() float64 { return g.costPerCall }

// Fetch runs a nearby search, retrying transient failures with exponential backoff.
func (g *Gateway) Fetch(ctx context.Context, q Query) ([]candidate.Candidate, error) {
	start := time.Now()
	defer func() {
		metrics.GatewayRequestDuration.Observe(time.Since(start).Seconds())
	}()

	backoff := g.baseBackoff
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.GatewayRetriesTotal.Inc()
			g.logger.Debug("Retrying places search",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			if err := g.sleep(ctx, backoff); err != nil {
				break
			}
			backoff = min(backoff*2, g.maxBackoff)
		}

		cands, err := g.attempt(ctx, q)
		if err == nil {
			metrics.GatewayRequestsTotal.WithLabelValues("ok").Inc()
			return cands, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrNetwork) || ctx.Err() != nil {
			break
		}
	}

	metrics.GatewayRequestsTotal.WithLabelValues(statusLabel(lastErr)).Inc()
	return nil, lastErr
}

func (g *Gateway) attempt(ctx context.Context, q Query) ([]candidate.Candidate, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", errors.Join(err, domain.ErrNetwork))
		}
	}

	actx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	req := &placesapi.GoogleMapsPlacesV1SearchNearbyRequest{
		IncludedTypes:  []string{"restaurant"},
		MaxResultCount: g.maxResults,
		RankPreference: "DISTANCE",
		LocationRestriction: &placesapi.GoogleMapsPlacesV1SearchNearbyRequestLocationRestriction{
			Circle: &placesapi.GoogleMapsPlacesV1Circle{
				Center: &placesapi.GoogleTypeLatLng{Latitude: q.Origin.Lat, Longitude: q.Origin.Lng},
				Radius: float64(q.RadiusMeters),
			},
		},
	}

	resp, err := g.svc.Places.SearchNearby(req).
		Fields(googleapi.Field(strings.Join(fieldMask, ","))).
		Context(actx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	out := make([]candidate.Candidate, 0, len(resp.Places))
	for _, p := range resp.Places {
		if c, ok := toCandidate(p); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
