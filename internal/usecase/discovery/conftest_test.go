package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	"github.com/kailas-cloud/dinewise/internal/domain/usage"
	"github.com/kailas-cloud/dinewise/internal/domain/usage/budget"
	"github.com/kailas-cloud/dinewise/internal/domain/usage/window"
	"github.com/kailas-cloud/dinewise/internal/repository/candcache"
	"github.com/kailas-cloud/dinewise/internal/transport/places"
	"github.com/kailas-cloud/dinewise/internal/usecase/governor"
	"github.com/kailas-cloud/dinewise/internal/usecase/ranking"
	"github.com/kailas-cloud/dinewise/internal/usecase/scoring"
)

var origin = geo.Point{Lat: 40.7128, Lng: -74.0060}

// metersPerDegree matches the haversine earth radius closely enough for tests.
const metersPerDegree = 111_195.0

// cand places a candidate north of origin at the given distance.
func cand(id string, rating float64, meters float64) candidate.Candidate {
	return candidate.Candidate{
		ID:         id,
		Name:       id,
		Location:   geo.Point{Lat: origin.Lat + meters/metersPerDegree, Lng: origin.Lng},
		PriceLevel: 2,
		Cuisines:   []string{"thai"},
		Rating:     rating,
	}
}

func nearby() []candidate.Candidate {
	return []candidate.Candidate{cand("p1", 4.5, 100), cand("p2", 4.2, 300), cand("p3", 4.0, 500), cand("p4", 3.9, 700)}
}

// --- Mocks ---

type mockProfiles struct {
	profiles map[string]*profile.Profile
}

func (m *mockProfiles) Profile(_ context.Context, userID string) (*profile.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

type mockBudgets struct {
	remaining float64
	known     bool
	err       error
}

func (m *mockBudgets) RemainingBudget(context.Context, string, request.Period) (float64, bool, error) {
	return m.remaining, m.known, m.err
}

type mockAnnotations struct {
	notes map[string]candidate.Annotations
	err   error
}

func (m *mockAnnotations) Annotations(_ context.Context, ids []string) (map[string]candidate.Annotations, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]candidate.Annotations)
	for _, id := range ids {
		if a, ok := m.notes[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

// mockGateway returns cands for every query. When gate is set, Fetch signals
// started and blocks until gate is closed. With clip set only cands inside
// the query circle come back.
type mockGateway struct {
	mu      sync.Mutex
	cands   []candidate.Candidate
	clip    bool
	err     error
	queries []places.Query
	gate    chan struct{}
	started chan struct{}
}

func (m *mockGateway) Fetch(ctx context.Context, q places.Query) ([]candidate.Candidate, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	gate, started := m.gate, m.started
	m.mu.Unlock()

	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	var out []candidate.Candidate
	for _, c := range m.cands {
		if m.clip && q.Origin.DistanceTo(c.Location) > float64(q.RadiusMeters) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockGateway) EstimatedCost() float64 { return 0.032 }

func (m *mockGateway) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

type mockGovernor struct {
	mu        sync.Mutex
	admission governor.Admission
	calls     int
}

func (m *mockGovernor) Authorize(float64) (governor.Admission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.admission, nil
}

type mockUsage struct {
	state usage.State
}

func (m *mockUsage) Snapshot() usage.State { return m.state }

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(e event.Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) all() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// --- Harness ---

type harness struct {
	svc       *Service
	cache     *candcache.Cache
	clock     *fakeClock
	gateway   *mockGateway
	governor  *mockGovernor
	profiles  *mockProfiles
	notes     *mockAnnotations
	budgets   *mockBudgets
	publisher *recordingPublisher
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)}
	h := &harness{
		cache:     candcache.New(candcache.Config{}, zap.NewNop(), candcache.WithClock(clock.Now)),
		clock:     clock,
		gateway:   &mockGateway{cands: nearby()},
		governor:  &mockGovernor{admission: governor.Admission{Decision: governor.Proceed}},
		profiles:  &mockProfiles{profiles: map[string]*profile.Profile{"u1": {UserID: "u1"}}},
		notes:     &mockAnnotations{},
		budgets:   &mockBudgets{},
		publisher: &recordingPublisher{},
	}
	ranker, err := ranking.New(ranking.Config{})
	if err != nil {
		t.Fatal(err)
	}
	st := usage.NewState(
		window.New(3, 60, time.Minute, time.Time{}),
		budget.New(5, 0.096, clock.Now().Add(5*time.Hour)),
		0,
	)
	h.svc, err = New(Deps{
		Profiles:    h.profiles,
		Budgets:     h.budgets,
		Annotations: h.notes,
		Cache:       h.cache,
		Gateway:     h.gateway,
		Governor:    h.governor,
		Usage:       &mockUsage{state: st},
		Scorer:      scoring.New(score.DefaultWeights),
		Ranker:      ranker,
		Publisher:   h.publisher,
	}, zap.NewNop(), append([]Option{WithClock(clock.Now)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func newRequest(t *testing.T, radius int, slot string) request.Request {
	t.Helper()
	req, err := request.New("u1", origin, radius, filter.None, request.Context{}, slot)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}
