package dinewise

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
)

// Query is one discovery request.
type Query struct {
	UserID string
	// Slot names the UI slot this query fills. A newer query for the same
	// slot cancels an older one still in flight. Empty disables supersession.
	Slot string

	Lat, Lng     float64
	RadiusMeters int // 0 = 1500m

	Cuisines []string
	MaxPrice *int // nil = no price ceiling
	OpenNow  bool

	TimeOfDay TimeOfDay
	Mood      Mood
	Period    Period // "" = week
	// RemainingBudget overrides the stored budget for Period when set.
	RemainingBudget *float64
}

// Discover returns restaurants ranked for the query's user. Restaurants
// that cannot be confirmed safe for a severe allergen or strict
// restriction are never returned. A result served from cache when live
// data was unavailable has Degraded set; when neither existed the error
// wraps ErrNoFallback.
func (c *Client) Discover(ctx context.Context, q Query) (Result, error) {
	start := time.Now()

	req, err := q.toRequest()
	if err != nil {
		c.obs.observe("discover", start, err)
		return Result{}, err
	}

	res, err := c.discoverySvc.Discover(ctx, req)
	c.obs.observe("discover", start, err)
	if err != nil {
		return Result{}, fmt.Errorf("discover: %w", err)
	}
	c.obs.delivered(res)
	return res, nil
}

// Refresh drops a cached candidate set so the next discovery for it
// fetches live. key is Result.CacheKey.
func (c *Client) Refresh(ctx context.Context, key string) error {
	start := time.Now()
	err := c.discoverySvc.Refresh(ctx, key)
	c.obs.observe("refresh", start, err)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", key, err)
	}
	return nil
}

func (q *Query) toRequest() (request.Request, error) {
	maxPrice := -1
	if q.MaxPrice != nil {
		maxPrice = *q.MaxPrice
		if maxPrice < 0 {
			return request.Request{}, fmt.Errorf("%w: max price must be >= 0", domain.ErrInvalidRequest)
		}
	}
	f, err := filter.New(q.Cuisines, maxPrice, q.OpenNow)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	req, err := request.New(q.UserID, geo.Point{Lat: q.Lat, Lng: q.Lng}, q.RadiusMeters, f, request.Context{
		TimeOfDay:       q.TimeOfDay,
		Mood:            q.Mood,
		Period:          q.Period,
		RemainingBudget: q.RemainingBudget,
	}, q.Slot)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}
