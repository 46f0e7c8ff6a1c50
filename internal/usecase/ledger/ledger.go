// Package ledger tracks provider requests per rolling window and daily cost.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/usage"
	"github.com/kailas-cloud/dinewise/internal/domain/usage/budget"
	"github.com/kailas-cloud/dinewise/internal/domain/usage/window"
)

// Reservation is the outcome of TryReserve.
type Reservation int

// Reservation outcomes.
const (
	Allowed Reservation = iota
	RateLimited
)

func (r Reservation) String() string {
	if r == Allowed {
		return "allowed"
	}
	return "rate_limited"
}

// costScale converts cost to integer micro-units for the INCRBY counter.
const costScale = 1_000_000

// CostStore is the persistence interface for the daily cost counter.
type CostStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Config holds ledger limits.
type Config struct {
	WindowLimit    int
	Window         time.Duration
	DailyCostLimit float64
	ResetHour      int
	Location       *time.Location
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger is the process-wide usage state. All access goes through its
// synchronized methods.
type Ledger struct {
	mu        sync.Mutex
	cfg       Config
	log       []time.Time // request timestamps, ascending
	dailyCost float64
	dayStart  time.Time
	now       func() time.Time
	store     CostStore
	logger    *zap.Logger
}

// New creates a ledger with an empty window and zero daily cost.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Ledger, error) {
	if cfg.WindowLimit <= 0 {
		return nil, fmt.Errorf("window limit must be > 0: %w", domain.ErrInvalidConfiguration)
	}
	if cfg.DailyCostLimit < 0 {
		return nil, fmt.Errorf("daily cost limit must be >= 0: %w", domain.ErrInvalidConfiguration)
	}
	if cfg.ResetHour < 0 || cfg.ResetHour > 23 {
		return nil, fmt.Errorf("reset hour must be in [0,23]: %w", domain.ErrInvalidConfiguration)
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	l := &Ledger{
		cfg:    cfg,
		log:    make([]time.Time, 0, cfg.WindowLimit),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.dayStart = l.periodStart(l.now())
	return l, nil
}

// WithStore attaches a persistence store and loads today's accrued cost.
func (l *Ledger) WithStore(ctx context.Context, store CostStore) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.store = store
	l.resetIfNeeded(l.now())
	key := l.dailyKey(l.dayStart)

	val, err := store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("Failed to load daily cost from store", zap.String("key", key), zap.Error(err))
		return l
	}
	l.dailyCost = float64(val) / costScale
	l.logger.Info("Daily cost loaded from store",
		zap.String("key", key),
		zap.Float64("daily_cost", l.dailyCost),
		zap.Float64("daily_limit", l.cfg.DailyCostLimit),
	)
	return l
}

// TryReserve logs one request if the rolling window has room.
func (l *Ledger) TryReserve() Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfNeeded(now)
	l.prune(now)
	if len(l.log) >= l.cfg.WindowLimit {
		return RateLimited
	}
	l.log = append(l.log, now)
	return Allowed
}

// RecordCost adds amount to today's cost and writes it behind to the store.
func (l *Ledger) RecordCost(amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("cost %v: %w", amount, domain.ErrInvalidCost)
	}

	l.mu.Lock()
	l.resetIfNeeded(l.now())
	l.dailyCost += amount
	store := l.store
	key := l.dailyKey(l.dayStart)
	l.mu.Unlock()

	if store == nil || amount == 0 {
		return nil
	}

	// Write-behind: the in-memory total is authoritative for this process.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.IncrBy(ctx, key, int64(math.Round(amount*costScale))); err != nil {
		l.logger.Warn("Failed to persist daily cost", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Snapshot returns the current usage state. Cache hit rate is left zero.
func (l *Ledger) Snapshot() usage.State {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfNeeded(now)
	l.prune(now)

	var resetAt time.Time
	if len(l.log) > 0 {
		resetAt = l.log[0].Add(l.cfg.Window)
	}
	w := window.New(len(l.log), l.cfg.WindowLimit, l.cfg.Window, resetAt)
	b := budget.New(l.cfg.DailyCostLimit, l.dailyCost, l.dayStart.AddDate(0, 0, 1))
	return usage.NewState(w, b, 0)
}

// ResetDaily zeroes the daily cost. The rolling window is untouched.
func (l *Ledger) ResetDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyCost = 0
	l.dayStart = l.periodStart(l.now())
}

// DailyLimit returns the configured daily cost cap.
func (l *Ledger) DailyLimit() float64 { return l.cfg.DailyCostLimit }

// prune drops timestamps that left the window. Caller holds mu.
func (l *Ledger) prune(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(l.log) && !l.log[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.log = append(l.log[:0], l.log[i:]...)
	}
}

// resetIfNeeded zeroes the daily cost when the reset boundary passed. Caller holds mu.
func (l *Ledger) resetIfNeeded(now time.Time) {
	start := l.periodStart(now)
	if start.After(l.dayStart) {
		l.dailyCost = 0
		l.dayStart = start
	}
}

// periodStart returns the most recent reset boundary at or before t.
func (l *Ledger) periodStart(t time.Time) time.Time {
	lt := t.In(l.cfg.Location)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), l.cfg.ResetHour, 0, 0, 0, l.cfg.Location)
	if lt.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

func (l *Ledger) dailyKey(start time.Time) string {
	return fmt.Sprintf("%scost:daily:%s", domain.KeyPrefix, start.Format("2006-01-02"))
}
