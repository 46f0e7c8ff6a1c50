// Package ranking filters, relaxes, re-weights and orders scored candidates
// into the final discovery result.
package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	"github.com/kailas-cloud/dinewise/internal/logger"
)

// Config tunes relaxation and output size.
type Config struct {
	MinResults     int
	TopN           int
	RadiusGrowth   float64
	MaxRadius      int
	MaxRadiusSteps int
	PriceEstimates map[int]float64
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.MinResults <= 0 {
		c.MinResults = 3
	}
	if c.TopN <= 0 {
		c.TopN = 3
	}
	if c.RadiusGrowth <= 1 {
		c.RadiusGrowth = 2
	}
	if c.MaxRadius <= 0 || c.MaxRadius > request.MaxRadius {
		c.MaxRadius = request.MaxRadius
	}
	if c.MaxRadiusSteps <= 0 {
		c.MaxRadiusSteps = 3
	}
	if len(c.PriceEstimates) == 0 {
		c.PriceEstimates = DefaultPriceEstimates
	}
}

// Validate checks the tuning after defaults are applied.
func (c *Config) Validate() error {
	if c.MinResults > c.TopN {
		return fmt.Errorf("%w: min_results (%d) must not exceed top_n (%d)",
			domain.ErrInvalidConfiguration, c.MinResults, c.TopN)
	}
	for level, cost := range c.PriceEstimates {
		if cost < 0 {
			return fmt.Errorf("%w: price estimate for level %d is negative",
				domain.ErrInvalidConfiguration, level)
		}
	}
	return nil
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRelaxationMetrics counts applied relaxations by kind.
func WithRelaxationMetrics(vec *prometheus.CounterVec) Option {
	return func(a *Aggregator) { a.relaxations = vec }
}

// Aggregator is stateless after construction and safe for concurrent use.
type Aggregator struct {
	cfg         Config
	relaxations *prometheus.CounterVec
}

// New creates an aggregator.
func New(cfg Config, opts ...Option) (*Aggregator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Aggregator{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// Config returns the effective configuration.
func (a *Aggregator) Config() Config { return a.cfg }

// Rank produces the ordered top-N for req. Safety-excluded candidates never
// survive. When fewer than MinResults pass the filters, cuisine, price and
// radius are loosened in that order; refetcher may be nil, which disables
// radius widening. Only context cancellation and supersession abort ranking.
func (a *Aggregator) Rank(
	ctx context.Context,
	req request.Request,
	batch Batch,
	refetcher Refetcher,
) (domrank.Result, error) {
	if batch.RadiusMeters == 0 {
		batch.RadiusMeters = req.Radius()
	}
	filters := req.Filters()
	radius := batch.RadiusMeters
	stale := batch.Stale

	survivors := survive(batch.Scored, filters, radius)
	var relaxed []filter.Kind

	for _, kind := range filter.RelaxationOrder {
		if len(survivors) >= a.cfg.MinResults {
			break
		}
		switch kind {
		case filter.Cuisine:
			if len(filters.Cuisines()) == 0 {
				continue
			}
			filters = filters.Without(filter.Cuisine)
		case filter.Price:
			if _, ok := filters.MaxPrice(); !ok {
				continue
			}
			filters = filters.Without(filter.Price)
		case filter.Radius:
			widened, nb, err := a.widen(ctx, batch, filters, refetcher)
			if err != nil {
				return domrank.Result{}, err
			}
			if !widened {
				continue
			}
			batch = nb
			radius = nb.RadiusMeters
			stale = stale || nb.Stale
		}
		relaxed = append(relaxed, kind)
		if a.relaxations != nil {
			a.relaxations.WithLabelValues(string(kind)).Inc()
		}
		survivors = survive(batch.Scored, filters, radius)
	}

	strategy := SelectStrategy(req.Context())
	remaining, known := req.RemainingBudget()

	items := make([]domrank.Item, 0, len(survivors))
	for _, s := range survivors {
		impact := budgetImpact(&s.Candidate, a.cfg.PriceEstimates, remaining, known)
		adj := Adjustment(strategy, &s, impact)
		items = append(items, domrank.Item{
			Scored:            s,
			AdjustedScore:     score.Clamp01(s.Score + adj),
			ContextAdjustment: adj,
			BudgetImpact:      impact,
		})
	}
	slices.SortFunc(items, func(x, y domrank.Item) int {
		if c := cmp.Compare(y.AdjustedScore, x.AdjustedScore); c != 0 {
			return c
		}
		return score.TieBreak(&x.Scored, &y.Scored)
	})
	if len(items) > a.cfg.TopN {
		items = items[:a.cfg.TopN]
	}
	for i := range items {
		items[i].Rank = i + 1
	}

	return domrank.Result{
		Items:        items,
		Degraded:     len(relaxed) > 0 || stale,
		Stale:        stale,
		Relaxations:  relaxed,
		CacheKey:     batch.CacheKey,
		Source:       batch.Source,
		Strategy:     strategy,
		RadiusMeters: radius,
		Excluded:     countExcluded(batch.Scored),
	}, nil
}

// widen grows the radius step by step until enough candidates survive,
// the cap is hit or the refetcher stops producing data. It reports whether
// any wider batch was obtained.
func (a *Aggregator) widen(
	ctx context.Context,
	batch Batch,
	filters filter.Raw,
	refetcher Refetcher,
) (bool, Batch, error) {
	if refetcher == nil {
		return false, batch, nil
	}
	log := logger.FromContext(ctx)
	radius := batch.RadiusMeters
	widened := false

	for step := 0; step < a.cfg.MaxRadiusSteps; step++ {
		next := min(int(float64(radius)*a.cfg.RadiusGrowth), a.cfg.MaxRadius)
		if next <= radius {
			break
		}
		nb, err := refetcher.Refetch(ctx, next)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, domain.ErrSuperseded) {
				return false, batch, err
			}
			log.Warn("radius relaxation stopped",
				zap.Int("radius_meters", next), zap.Error(err))
			break
		}
		if nb.RadiusMeters == 0 {
			nb.RadiusMeters = next
		}
		batch, radius, widened = nb, nb.RadiusMeters, true
		if len(survive(batch.Scored, filters, radius)) >= a.cfg.MinResults {
			break
		}
	}
	return widened, batch, nil
}

func survive(all []score.Scored, filters filter.Raw, radius int) []score.Scored {
	out := make([]score.Scored, 0, len(all))
	for i := range all {
		s := &all[i]
		if s.Excluded() {
			continue
		}
		if s.DistanceMeters > float64(radius) {
			continue
		}
		if !filters.Match(&s.Candidate) {
			continue
		}
		out = append(out, *s)
	}
	return out
}

func countExcluded(all []score.Scored) int {
	n := 0
	for i := range all {
		if all[i].Excluded() {
			n++
		}
	}
	return n
}
