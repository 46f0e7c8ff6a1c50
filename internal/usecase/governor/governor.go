// Package governor decides whether a live provider call may proceed.
package governor

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/usage"
	"github.com/kailas-cloud/dinewise/internal/usecase/ledger"
)

// DefaultAdvisoryFraction is the share of the daily limit that fires a cost_threshold event.
const DefaultAdvisoryFraction = 0.8

// Decision is the admission outcome.
type Decision int

// Admission decisions.
const (
	Proceed Decision = iota
	UseCacheOnly
)

func (d Decision) String() string {
	if d == Proceed {
		return "proceed"
	}
	return "use_cache_only"
}

// Reason explains UseCacheOnly.
type Reason string

// Admission reasons.
const (
	ReasonNone          Reason = ""
	ReasonCostExhausted Reason = "cost_exhausted"
	ReasonRateLimited   Reason = "rate_limited"
)

// Admission is the result of Authorize.
type Admission struct {
	Decision Decision
	Reason   Reason
}

// Err maps a UseCacheOnly admission to its sentinel error (nil on Proceed).
func (a Admission) Err() error {
	switch a.Reason {
	case ReasonCostExhausted:
		return fmt.Errorf("daily cost budget exhausted: %w", domain.ErrQuotaExceeded)
	case ReasonRateLimited:
		return fmt.Errorf("request window full: %w", domain.ErrRateLimited)
	default:
		return nil
	}
}

// Option configures a Governor.
type Option func(*Governor)

// WithPublisher attaches the advisory event sink.
func WithPublisher(p publisher) Option {
	return func(g *Governor) { g.publisher = p }
}

// WithAdvisoryFraction overrides the cost_threshold fraction.
func WithAdvisoryFraction(f float64) Option {
	return func(g *Governor) { g.advisoryFraction = f }
}

// WithMetrics attaches the decision counter (labels "decision","reason") and the daily cost gauge.
func WithMetrics(decisions *prometheus.CounterVec, cost prometheus.Gauge) Option {
	return func(g *Governor) {
		g.decisions = decisions
		g.costGauge = cost
	}
}

// WithClock overrides the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) { g.now = now }
}

// Governor gates live fetches on the daily cost budget and the request window.
type Governor struct {
	mu               sync.Mutex
	ledger           usageLedger
	publisher        publisher
	advisoryFraction float64
	advisedFor       time.Time // ResetsAt of the day an advisory already fired for
	decisions        *prometheus.CounterVec
	costGauge        prometheus.Gauge
	now              func() time.Time
	logger           *zap.Logger
}

// New creates a governor over l.
func New(l usageLedger, logger *zap.Logger, opts ...Option) *Governor {
	g := &Governor{
		ledger:           l,
		advisoryFraction: DefaultAdvisoryFraction,
		now:              time.Now,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize admits or refuses one live fetch. On Proceed the estimated cost
// is already charged. Cost is checked before the rate window so an
// exhausted budget never consumes a window slot.
func (g *Governor) Authorize(estimatedCost float64) (Admission, error) {
	if estimatedCost < 0 {
		return Admission{}, fmt.Errorf("estimated cost %v: %w", estimatedCost, domain.ErrInvalidCost)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	b := g.ledger.Snapshot().Budget()
	if !b.Admits(estimatedCost) {
		return g.refuse(ReasonCostExhausted), nil
	}
	if g.ledger.TryReserve() == ledger.RateLimited {
		return g.refuse(ReasonRateLimited), nil
	}
	if err := g.ledger.RecordCost(estimatedCost); err != nil {
		return Admission{}, fmt.Errorf("charge admission: %w", err)
	}

	accrued := b.CostAccrued() + estimatedCost
	if g.costGauge != nil {
		g.costGauge.Set(accrued)
	}
	g.maybeAdvise(accrued, b.CostLimit(), b.ResetsAt())
	g.count(Proceed, ReasonNone)
	return Admission{Decision: Proceed}, nil
}

// Mode reports live or cache-only from the current budget.
func (g *Governor) Mode() usage.Mode {
	return g.ledger.Snapshot().Mode()
}

func (g *Governor) refuse(r Reason) Admission {
	g.count(UseCacheOnly, r)
	g.logger.Debug("Live fetch refused", zap.String("reason", string(r)))
	return Admission{Decision: UseCacheOnly, Reason: r}
}

// maybeAdvise fires one cost_threshold event per daily period. Caller holds mu.
func (g *Governor) maybeAdvise(accrued, limit float64, resetsAt time.Time) {
	if limit <= 0 || accrued < g.advisoryFraction*limit || g.advisedFor.Equal(resetsAt) {
		return
	}
	g.advisedFor = resetsAt
	g.logger.Warn("Daily cost crossed advisory threshold",
		zap.Float64("accrued", accrued),
		zap.Float64("limit", limit),
		zap.Float64("fraction", g.advisoryFraction),
	)
	if g.publisher != nil {
		g.publisher.Publish(event.NewCostThreshold(g.now(), accrued, limit))
	}
}

func (g *Governor) count(d Decision, r Reason) {
	if g.decisions == nil {
		return
	}
	reason := string(r)
	if reason == "" {
		reason = "none"
	}
	g.decisions.WithLabelValues(d.String(), reason).Inc()
}
