package budget

import "time"

// epsilon absorbs float drift from summing many small per-call costs.
const epsilon = 1e-9

// Budget is a snapshot of the daily provider cost budget.
type Budget struct {
	costLimit   float64
	costAccrued float64
	resetsAt    time.Time
}

// New creates a Budget snapshot.
func New(limit, accrued float64, resetsAt time.Time) Budget {
	return Budget{costLimit: limit, costAccrued: accrued, resetsAt: resetsAt}
}

// CostLimit returns the daily cost cap.
func (b Budget) CostLimit() float64 { return b.costLimit }

// CostAccrued returns cost charged since the last reset.
func (b Budget) CostAccrued() float64 { return b.costAccrued }

// Remaining returns the cost left today, never negative.
func (b Budget) Remaining() float64 {
	return max(b.costLimit-b.costAccrued, 0)
}

// IsExhausted reports whether no further cost fits today.
func (b Budget) IsExhausted() bool {
	return b.costAccrued >= b.costLimit-epsilon
}

// Admits reports whether charging cost keeps the accrued total within the limit.
func (b Budget) Admits(cost float64) bool {
	return b.costAccrued+cost <= b.costLimit+epsilon
}

// Fraction returns accrued / limit (0 when there is no limit).
func (b Budget) Fraction() float64 {
	if b.costLimit <= 0 {
		return 0
	}
	return b.costAccrued / b.costLimit
}

// ResetsAt returns the start of the next daily period.
func (b Budget) ResetsAt() time.Time { return b.resetsAt }
