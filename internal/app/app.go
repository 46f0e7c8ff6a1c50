// Package app assembles the discovery graph over one database store.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/db"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/metrics"
	budgetrepo "github.com/kailas-cloud/dinewise/internal/repository/budget"
	"github.com/kailas-cloud/dinewise/internal/repository/candcache"
	profilerepo "github.com/kailas-cloud/dinewise/internal/repository/profile"
	safetyrepo "github.com/kailas-cloud/dinewise/internal/repository/safety"
	spendrepo "github.com/kailas-cloud/dinewise/internal/repository/spend"
	"github.com/kailas-cloud/dinewise/internal/usecase/advisory"
	"github.com/kailas-cloud/dinewise/internal/usecase/discovery"
	"github.com/kailas-cloud/dinewise/internal/usecase/governor"
	healthuc "github.com/kailas-cloud/dinewise/internal/usecase/health"
	"github.com/kailas-cloud/dinewise/internal/usecase/ledger"
	"github.com/kailas-cloud/dinewise/internal/usecase/ranking"
	"github.com/kailas-cloud/dinewise/internal/usecase/scoring"
	usageuc "github.com/kailas-cloud/dinewise/internal/usecase/usage"
)

// Settings are the tunables of the discovery graph.
type Settings struct {
	Ledger           ledger.Config
	AdvisoryFraction float64 // 0 = governor default
	Cache            candcache.Config
	Weights          score.Weights
	Ranking          ranking.Config
	EventBuffer      int // 0 = broker default
}

// App holds the assembled use cases.
type App struct {
	Discovery   *discovery.Service
	Usage       *usageuc.Service
	Health      *healthuc.Service
	Events      *advisory.Broker
	Governor    *governor.Governor
	Ledger      *ledger.Ledger
	Profiles    *profilerepo.Repo
	Annotations *safetyrepo.Repo
	Spend       *spendrepo.Repo
}

// Build wires every component over store and gw. Metrics are attached to
// the package-level collectors in internal/metrics; registering them is the
// caller's choice.
func Build(ctx context.Context, s Settings, store db.Store, gw discovery.Gateway, logger *zap.Logger) (*App, error) {
	if err := s.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("scoring weights: %w", err)
	}

	l, err := ledger.New(s.Ledger, logger.Named("ledger"))
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	l.WithStore(ctx, budgetrepo.New(store, 0))

	broker := advisory.NewBroker(s.EventBuffer, logger.Named("advisory"))

	govOpts := []governor.Option{
		governor.WithPublisher(broker),
		governor.WithMetrics(metrics.GovernorDecisionsTotal, metrics.DailyCostAccrued),
	}
	if s.AdvisoryFraction > 0 {
		govOpts = append(govOpts, governor.WithAdvisoryFraction(s.AdvisoryFraction))
	}
	gov := governor.New(l, logger.Named("governor"), govOpts...)

	cache := candcache.New(s.Cache, logger.Named("cache"),
		candcache.WithStore(store),
		candcache.WithLookups(metrics.CacheLookupsTotal),
	)

	ranker, err := ranking.New(s.Ranking, ranking.WithRelaxationMetrics(metrics.RelaxationsTotal))
	if err != nil {
		return nil, fmt.Errorf("create ranker: %w", err)
	}

	profiles := profilerepo.New(store)
	annotations := safetyrepo.New(store)
	spend := spendrepo.New(store)

	svc, err := discovery.New(discovery.Deps{
		Profiles:    profiles,
		Budgets:     spend,
		Annotations: annotations,
		Cache:       cache,
		Gateway:     gw,
		Governor:    gov,
		Usage:       l,
		Scorer:      scoring.New(s.Weights),
		Ranker:      ranker,
		Publisher:   broker,
	}, logger.Named("discovery"),
		discovery.WithMetrics(metrics.DiscoveryOutcomesTotal, metrics.SafetyExclusionsTotal),
	)
	if err != nil {
		return nil, fmt.Errorf("create discovery service: %w", err)
	}

	return &App{
		Discovery:   svc,
		Usage:       usageuc.New(svc),
		Health:      healthuc.New(store, gov),
		Events:      broker,
		Governor:    gov,
		Ledger:      l,
		Profiles:    profiles,
		Annotations: annotations,
		Spend:       spend,
	}, nil
}

// Close shuts down the advisory stream.
func (a *App) Close() {
	a.Events.Close()
}
