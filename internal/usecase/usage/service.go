package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/dinewise/internal/domain/usage"
)

// Report is the flattened usage view served to operators.
type Report struct {
	Mode               domusage.Mode
	RequestsInWindow   int
	WindowLimit        int
	WindowSpan         time.Duration
	WindowResetAt      time.Time // zero when the window is empty
	DailyCostAccrued   float64
	DailyCostLimit     float64
	DailyCostRemaining float64
	DailyCostFraction  float64
	PeriodStart        time.Time
	PeriodEnd          time.Time
	Exhausted          bool
	CacheHitRate       float64
}

// Service handles usage reporting.
type Service struct {
	sr StateReader
}

// New creates a Service.
func New(sr StateReader) *Service {
	return &Service{sr: sr}
}

// GetReport builds a usage report for the current daily period.
func (s *Service) GetReport(_ context.Context) Report {
	st := s.sr.UsageStatus()
	w, b := st.Window(), st.Budget()

	var start time.Time
	if end := b.ResetsAt(); !end.IsZero() {
		start = end.AddDate(0, 0, -1)
	}

	return Report{
		Mode:               st.Mode(),
		RequestsInWindow:   w.Requests(),
		WindowLimit:        w.Limit(),
		WindowSpan:         w.Span(),
		WindowResetAt:      w.ResetAt(),
		DailyCostAccrued:   b.CostAccrued(),
		DailyCostLimit:     b.CostLimit(),
		DailyCostRemaining: b.Remaining(),
		DailyCostFraction:  b.Fraction(),
		PeriodStart:        start,
		PeriodEnd:          b.ResetsAt(),
		Exhausted:          b.IsExhausted(),
		CacheHitRate:       st.CacheHitRate(),
	}
}
