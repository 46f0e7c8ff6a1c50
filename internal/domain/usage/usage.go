package usage

import (
	"github.com/kailas-cloud/dinewise/internal/domain/usage/budget"
	"github.com/kailas-cloud/dinewise/internal/domain/usage/window"
)

// Mode is the governor's current operating mode.
type Mode string

// Operating modes.
const (
	ModeLive      Mode = "live"
	ModeCacheOnly Mode = "cache_only"
)

// State is a point-in-time view of provider usage.
type State struct {
	window       window.Window
	budget       budget.Budget
	cacheHitRate float64
}

// NewState creates a usage snapshot.
func NewState(w window.Window, b budget.Budget, cacheHitRate float64) State {
	return State{window: w, budget: b, cacheHitRate: cacheHitRate}
}

// Window returns the rolling request window.
func (s State) Window() window.Window { return s.window }

// Budget returns the daily cost budget.
func (s State) Budget() budget.Budget { return s.budget }

// CacheHitRate returns hits/(hits+misses) in [0,1].
func (s State) CacheHitRate() float64 { return s.cacheHitRate }

// WithCacheHitRate returns a copy carrying the given hit rate.
func (s State) WithCacheHitRate(rate float64) State {
	s.cacheHitRate = rate
	return s
}

// Mode derives the operating mode from the budget: exhausted means cache only.
func (s State) Mode() Mode {
	if s.budget.IsExhausted() {
		return ModeCacheOnly
	}
	return ModeLive
}
