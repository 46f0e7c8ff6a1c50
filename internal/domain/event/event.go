// Package event defines advisory events published for monitoring.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the advisory event type.
type Kind string

// Advisory event kinds.
const (
	KindCostThreshold  Kind = "cost_threshold"
	KindDegradedResult Kind = "degraded_result"
)

// Event is one advisory notification. Exactly one of the payloads is set.
type Event struct {
	ID            string         `json:"id"`
	Kind          Kind           `json:"kind"`
	At            time.Time      `json:"at"`
	CostThreshold *CostThreshold `json:"cost_threshold,omitempty"`
	Degraded      *Degraded      `json:"degraded,omitempty"`
}

// CostThreshold is fired once per day when accrued cost crosses the advisory fraction.
type CostThreshold struct {
	Accrued  float64 `json:"accrued"`
	Limit    float64 `json:"limit"`
	Fraction float64 `json:"fraction"`
}

// Degraded is fired for every degraded result.
type Degraded struct {
	UserID      string   `json:"user_id"`
	CacheKey    string   `json:"cache_key"`
	Stale       bool     `json:"stale"`
	Relaxations []string `json:"relaxations,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// NewCostThreshold builds a cost_threshold event.
func NewCostThreshold(at time.Time, accrued, limit float64) Event {
	frac := 0.0
	if limit > 0 {
		frac = accrued / limit
	}
	return Event{
		ID:            uuid.NewString(),
		Kind:          KindCostThreshold,
		At:            at,
		CostThreshold: &CostThreshold{Accrued: accrued, Limit: limit, Fraction: frac},
	}
}

// NewDegraded builds a degraded_result event.
func NewDegraded(at time.Time, d Degraded) Event {
	return Event{ID: uuid.NewString(), Kind: KindDegradedResult, At: at, Degraded: &d}
}
