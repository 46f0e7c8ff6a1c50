// Package health reports whether discovery can be served and how.
package health

import (
	"context"
	"time"

	"github.com/kailas-cloud/dinewise/internal/domain/usage"
)

// DefaultPingTimeout bounds the store probe.
const DefaultPingTimeout = 2 * time.Second

// Status is the aggregated health.
type Status string

const (
	// Healthy means discovery runs with live provider calls.
	Healthy Status = "ok"
	// Degraded means discovery still answers, from cache only.
	Degraded Status = "degraded"
	// Unhealthy means the store is unreachable, so no profile can be read.
	Unhealthy Status = "error"
)

// CheckResult is one component's outcome.
type CheckResult string

// Component outcomes.
const (
	CheckOK        CheckResult = "ok"
	CheckError     CheckResult = "error"
	CheckCacheOnly CheckResult = "cache_only"
)

// Component names in Report.Checks.
const (
	ComponentStore  = "store"
	ComponentPlaces = "places"
)

// Report aggregates component checks.
type Report struct {
	Status Status
	Mode   usage.Mode
	Checks map[string]CheckResult
}

// Service runs the component checks.
type Service struct {
	store       storePinger
	mode        modeReader
	pingTimeout time.Duration
}

// New creates a Service. Either dependency may be nil and is then not reported.
func New(store storePinger, mode modeReader) *Service {
	return &Service{store: store, mode: mode, pingTimeout: DefaultPingTimeout}
}

// Check probes the store and reads the governor mode.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Mode: usage.ModeLive, Checks: make(map[string]CheckResult, 2)}

	if s.mode != nil {
		r.Mode = s.mode.Mode()
		r.Checks[ComponentPlaces] = CheckOK
		if r.Mode == usage.ModeCacheOnly {
			r.Checks[ComponentPlaces] = CheckCacheOnly
			r.Status = Degraded
		}
	}

	if s.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.pingTimeout)
		defer cancel()
		r.Checks[ComponentStore] = CheckOK
		if err := s.store.Ping(pingCtx); err != nil {
			r.Checks[ComponentStore] = CheckError
			r.Status = Unhealthy
		}
	}

	return r
}
