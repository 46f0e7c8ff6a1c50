package dinewise

import (
	"context"
	"time"

	usageuc "github.com/kailas-cloud/dinewise/internal/usecase/usage"
)

// Mode is the provider access mode for the current day.
type Mode string

// Provider access modes.
const (
	ModeLive      Mode = "live"
	ModeCacheOnly Mode = "cache_only"
)

// UsageReport describes provider consumption for the current daily period.
type UsageReport struct {
	Mode         Mode
	Window       WindowStatus
	Budget       BudgetStatus
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CacheHitRate float64
}

// WindowStatus is the live-fetch request window.
type WindowStatus struct {
	Requests int
	Limit    int
	Span     time.Duration
	ResetAt  time.Time // zero when no request is in the window
}

// BudgetStatus is the daily provider cost budget.
type BudgetStatus struct {
	Accrued     float64
	Limit       float64
	Remaining   float64
	Fraction    float64
	IsExhausted bool
	ResetsAt    time.Time
}

// Usage returns the current usage report.
// Observer always records success: the report is built from in-memory state.
func (c *Client) Usage(ctx context.Context) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	r := c.usageSvc.GetReport(ctx)
	return UsageReport{
		Mode: Mode(r.Mode),
		Window: WindowStatus{
			Requests: r.RequestsInWindow,
			Limit:    r.WindowLimit,
			Span:     r.WindowSpan,
			ResetAt:  r.WindowResetAt,
		},
		Budget: BudgetStatus{
			Accrued:     r.DailyCostAccrued,
			Limit:       r.DailyCostLimit,
			Remaining:   r.DailyCostRemaining,
			Fraction:    r.DailyCostFraction,
			IsExhausted: r.Exhausted,
			ResetsAt:    r.PeriodEnd,
		},
		PeriodStart:  r.PeriodStart,
		PeriodEnd:    r.PeriodEnd,
		CacheHitRate: r.CacheHitRate,
	}
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context) usageuc.Report
}
