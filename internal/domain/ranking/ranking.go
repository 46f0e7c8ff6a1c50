// Package ranking holds the final ordered discovery result.
package ranking

import (
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
)

// Source says where the candidate set came from.
type Source string

// Result sources.
const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
	SourceStale Source = "stale"
	SourceEmpty Source = "empty"
)

// Strategy is a contextual re-weighting strategy.
type Strategy string

// Contextual strategies. The set is closed.
const (
	StrategyNeutral         Strategy = "neutral"
	StrategyQuickBite       Strategy = "quick_bite"
	StrategyTreat           Strategy = "treat"
	StrategyBudgetConscious Strategy = "budget_conscious"
	StrategyLateNight       Strategy = "late_night"
)

// MaxAdjustment bounds the absolute contextual adjustment.
const MaxAdjustment = 0.1

// BudgetImpact is the estimated effect of one visit on the remaining budget.
type BudgetImpact struct {
	Known          bool    `json:"known"`
	EstimatedCost  float64 `json:"estimated_cost"`
	RemainingAfter float64 `json:"remaining_after"`
	Share          float64 `json:"share"` // estimated cost / remaining budget
	Exceeds        bool    `json:"exceeds"`
}

// Item is one ranked entry.
type Item struct {
	score.Scored
	Rank              int          `json:"rank"`
	AdjustedScore     float64      `json:"adjusted_score"`
	ContextAdjustment float64      `json:"context_adjustment"`
	BudgetImpact      BudgetImpact `json:"budget_impact"`
}

// Result is the terminal output of one discovery request.
type Result struct {
	Items        []Item        `json:"items"`
	Degraded     bool          `json:"degraded"`
	Stale        bool          `json:"stale"`
	Relaxations  []filter.Kind `json:"relaxations_applied"`
	CacheKey     string        `json:"cache_key"`
	Source       Source        `json:"source"`
	Strategy     Strategy      `json:"strategy"`
	RadiusMeters int           `json:"radius_meters"`
	Excluded     int           `json:"excluded"`
}

// Relaxed reports whether any filter was relaxed.
func (r *Result) Relaxed() bool { return len(r.Relaxations) > 0 }
