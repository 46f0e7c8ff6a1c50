// Package discovery is the entry point for restaurant discovery: it wires the
// cache, governor, gateway, scorer and ranker into one request lifecycle.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	"github.com/kailas-cloud/dinewise/internal/domain/usage"
	"github.com/kailas-cloud/dinewise/internal/logger"
	"github.com/kailas-cloud/dinewise/internal/repository/candcache"
	"github.com/kailas-cloud/dinewise/internal/transport/places"
	"github.com/kailas-cloud/dinewise/internal/usecase/governor"
	"github.com/kailas-cloud/dinewise/internal/usecase/ranking"
	"github.com/kailas-cloud/dinewise/internal/usecase/scoring"
)

// Deps are the collaborators of a Service. Budgets, Annotations and
// Publisher are optional.
type Deps struct {
	Profiles    ProfileReader
	Budgets     BudgetReader
	Annotations AnnotationReader
	Cache       CandidateCache
	Gateway     Gateway
	Governor    Admission
	Usage       UsageSnapshotter
	Scorer      Scorer
	Ranker      Ranker
	Publisher   Publisher
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches the outcome counter (labels "source","degraded") and
// the safety exclusion counter (label "reason").
func WithMetrics(outcomes, exclusions *prometheus.CounterVec) Option {
	return func(s *Service) {
		s.outcomes = outcomes
		s.exclusions = exclusions
	}
}

// WithClock overrides the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service handles discovery requests. Safe for concurrent use.
type Service struct {
	deps  Deps
	slots *slots

	outcomes   *prometheus.CounterVec
	exclusions *prometheus.CounterVec
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a Service. Every required dependency must be non-nil.
func New(d Deps, logger *zap.Logger, opts ...Option) (*Service, error) {
	switch {
	case d.Profiles == nil, d.Cache == nil, d.Gateway == nil, d.Governor == nil,
		d.Usage == nil, d.Scorer == nil, d.Ranker == nil:
		return nil, fmt.Errorf("%w: discovery dependencies incomplete", domain.ErrInvalidConfiguration)
	}
	s := &Service{
		deps:   d,
		slots:  newSlots(),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Discover runs one request to a ranked result. It returns
// domain.ErrSuperseded when a newer request claimed the same slot and a
// *domain.FailedError when neither live nor cached data was available.
func (s *Service) Discover(ctx context.Context, req request.Request) (domrank.Result, error) {
	ctx, release := s.slots.acquire(ctx, req.Slot())
	defer release()

	fields := []zap.Field{zap.String("user_id", req.UserID())}
	if req.Slot() != "" {
		fields = append(fields, zap.String("slot", req.Slot()))
	}
	ctx, log := logger.With(ctx, s.logger, fields...)

	p, err := s.deps.Profiles.Profile(ctx, req.UserID())
	if err != nil {
		if sup := superseded(ctx); sup != nil {
			return domrank.Result{}, sup
		}
		return domrank.Result{}, fmt.Errorf("load profile: %w", err)
	}
	req = s.withBudget(ctx, req)

	r := &run{svc: s, req: req, profile: p}
	batch, err := r.candidates(ctx, req.Radius())
	if err != nil {
		return domrank.Result{}, s.finish(ctx, err)
	}

	res, err := s.deps.Ranker.Rank(ctx, req, batch, ranking.RefetchFunc(r.candidates))
	if err != nil {
		return domrank.Result{}, s.finish(ctx, fmt.Errorf("rank: %w", err))
	}
	if err := superseded(ctx); err != nil {
		return domrank.Result{}, err
	}
	if len(res.Items) == 0 {
		res.Source = domrank.SourceEmpty
	}

	s.countOutcome(string(res.Source), res.Degraded)
	if res.Degraded {
		s.publishDegraded(req, &res, r.staleCause)
	}
	log.Debug("Discovery delivered",
		zap.String("source", string(res.Source)),
		zap.Bool("degraded", res.Degraded),
		zap.Int("items", len(res.Items)),
		zap.Int("excluded", res.Excluded),
	)
	return res, nil
}

// UsageStatus returns the ledger snapshot with the current cache hit rate.
func (s *Service) UsageStatus() usage.State {
	return s.deps.Usage.Snapshot().WithCacheHitRate(s.deps.Cache.HitRate())
}

// Refresh drops one cache key so the next discover for it goes live.
func (s *Service) Refresh(ctx context.Context, key string) error {
	if !candcache.IsKey(key) {
		return fmt.Errorf("%w: malformed cache key %q", domain.ErrInvalidRequest, key)
	}
	if err := s.deps.Cache.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// InFlight returns the number of slot-tagged requests in progress.
func (s *Service) InFlight() int { return s.slots.inFlight() }

// withBudget fills the remaining period budget when the request carries none.
// A budget lookup failure leaves it unknown.
func (s *Service) withBudget(ctx context.Context, req request.Request) request.Request {
	if _, ok := req.RemainingBudget(); ok || s.deps.Budgets == nil {
		return req
	}
	rem, known, err := s.deps.Budgets.RemainingBudget(ctx, req.UserID(), req.Context().Period)
	if err != nil {
		logger.FromContext(ctx).Warn("Remaining budget unavailable", zap.Error(err))
		return req
	}
	if !known {
		return req
	}
	return req.WithRemainingBudget(rem)
}

// finish maps cancellation by a newer request to ErrSuperseded and counts failures.
func (s *Service) finish(ctx context.Context, err error) error {
	if sup := superseded(ctx); sup != nil {
		return sup
	}
	var failed *domain.FailedError
	if errors.As(err, &failed) {
		s.countOutcome("failed", true)
		logger.FromContext(ctx).Warn("Discovery failed",
			zap.String("reason", domain.FailureReason(err)), zap.Error(failed.Cause))
	}
	return err
}

func (s *Service) countOutcome(source string, degraded bool) {
	if s.outcomes == nil {
		return
	}
	s.outcomes.WithLabelValues(source, strconv.FormatBool(degraded)).Inc()
}

func (s *Service) publishDegraded(req request.Request, res *domrank.Result, staleCause error) {
	if s.deps.Publisher == nil {
		return
	}
	relaxed := make([]string, len(res.Relaxations))
	for i, k := range res.Relaxations {
		relaxed[i] = string(k)
	}
	s.deps.Publisher.Publish(event.NewDegraded(s.now(), event.Degraded{
		UserID:      req.UserID(),
		CacheKey:    res.CacheKey,
		Stale:       res.Stale,
		Relaxations: relaxed,
		Reason:      degradeReason(res, staleCause),
	}))
}

func degradeReason(res *domrank.Result, staleCause error) string {
	if !res.Stale {
		return "relaxed"
	}
	switch {
	case errors.Is(staleCause, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(staleCause, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(staleCause, domain.ErrNetwork):
		return "network_error"
	case errors.Is(staleCause, domain.ErrInvalidConfiguration):
		return "invalid_configuration"
	default:
		return "stale"
	}
}

// run carries the state of one Discover call across radius re-queries.
type run struct {
	svc        *Service
	req        request.Request
	profile    *profile.Profile
	staleCause error
}

// candidates walks cache lookup, governor check and gateway fetch for one
// radius and returns the scored batch.
func (r *run) candidates(ctx context.Context, radiusMeters int) (ranking.Batch, error) {
	s := r.svc
	req := r.req.WithRadius(radiusMeters)
	key := candcache.Key(req.Origin(), req.Radius(), req.Filters())
	area := candcache.AreaKey(req.Origin(), req.Radius())

	entry, status := s.deps.Cache.Get(ctx, key)
	if status == candcache.Fresh {
		return r.score(ctx, req, entry, domrank.SourceCache)
	}
	// Filters are applied locally, so a fresh unfiltered set for the area serves.
	if shared, ok := s.deps.Cache.Share(ctx, area, key); ok {
		return r.score(ctx, req, shared, domrank.SourceCache)
	}

	loaded, shared, err := s.deps.Cache.LoadArea(ctx, key, area, r.fetcher(req))
	if err == nil {
		if shared {
			logger.FromContext(ctx).Debug("Joined in-flight fetch", zap.String("cache_key", key))
		}
		return r.score(ctx, req, loaded, domrank.SourceLive)
	}
	if sup := superseded(ctx); sup != nil {
		return ranking.Batch{}, sup
	}
	if ctx.Err() != nil {
		return ranking.Batch{}, ctx.Err()
	}
	if errors.Is(err, domain.ErrInvalidCost) {
		return ranking.Batch{}, err
	}

	if status == candcache.Stale {
		logger.FromContext(ctx).Info("Serving stale candidates",
			zap.String("cache_key", key), zap.Error(err))
		if r.staleCause == nil {
			r.staleCause = err
		}
		return r.score(ctx, req, entry, domrank.SourceStale)
	}
	return ranking.Batch{}, domain.NewFailed(err)
}

// fetcher admits and performs the live call. It runs once per key across
// concurrent callers, so each live call is charged once.
func (r *run) fetcher(req request.Request) candcache.Loader {
	s := r.svc
	return func(ctx context.Context) ([]candidate.Candidate, error) {
		adm, err := s.deps.Governor.Authorize(s.deps.Gateway.EstimatedCost())
		if err != nil {
			return nil, err
		}
		if adm.Decision == governor.UseCacheOnly {
			return nil, adm.Err()
		}
		// Shared by every origin in the geocell, so the circle must cover all of them.
		center, radius := candcache.FetchArea(req.Origin(), req.Radius())
		cands, err := s.deps.Gateway.Fetch(ctx, places.Query{Origin: center, RadiusMeters: radius})
		if err != nil {
			return nil, fmt.Errorf("gateway fetch: %w", err)
		}
		return cands, nil
	}
}

// score merges safety annotations into entry's candidates and scores them.
func (r *run) score(
	ctx context.Context,
	req request.Request,
	entry candcache.Entry,
	source domrank.Source,
) (ranking.Batch, error) {
	s := r.svc
	cands := r.annotate(ctx, entry.Candidates)

	scored, err := s.deps.Scorer.ScoreAll(ctx, cands, r.profile, scoring.Frame{
		Origin:       req.Origin(),
		RadiusMeters: req.Radius(),
	})
	if err != nil {
		if sup := superseded(ctx); sup != nil {
			return ranking.Batch{}, sup
		}
		return ranking.Batch{}, fmt.Errorf("score: %w", err)
	}
	if s.exclusions != nil {
		for i := range scored {
			if scored[i].Excluded() {
				s.exclusions.WithLabelValues(string(scored[i].Safety.Reason)).Inc()
			}
		}
	}

	return ranking.Batch{
		Scored:       scored,
		Source:       source,
		Stale:        source == domrank.SourceStale,
		CacheKey:     entry.Key,
		RadiusMeters: req.Radius(),
	}, nil
}

// annotate overlays community annotations on copies of cands. On lookup
// failure candidates keep provider data only, which the safety phase treats
// as unverified.
func (r *run) annotate(ctx context.Context, cands []candidate.Candidate) []candidate.Candidate {
	ann := r.svc.deps.Annotations
	if ann == nil || len(cands) == 0 {
		return cands
	}
	ids := make([]string, len(cands))
	for i := range cands {
		ids[i] = cands[i].ID
	}
	notes, err := ann.Annotations(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).Warn("Safety annotations unavailable", zap.Error(err))
		return cands
	}
	if len(notes) == 0 {
		return cands
	}

	out := make([]candidate.Candidate, len(cands))
	for i := range cands {
		if a, ok := notes[cands[i].ID]; ok {
			out[i] = cands[i].Merge(a)
		} else {
			out[i] = cands[i]
		}
	}
	return out
}
