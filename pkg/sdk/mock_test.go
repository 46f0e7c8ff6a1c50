package dinewise

import (
	"context"
	"sync"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	"github.com/kailas-cloud/dinewise/internal/transport/places"
)

// --- gateway fake ---

type fakeGateway struct {
	mu    sync.Mutex
	cands []candidate.Candidate
	calls int
}

func (g *fakeGateway) Fetch(context.Context, places.Query) ([]candidate.Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.cands, nil
}

func (g *fakeGateway) EstimatedCost() float64 { return 0.032 }

func (g *fakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var origin = geo.Point{Lat: 40.7128, Lng: -74.0060}

func nearby() []candidate.Candidate {
	out := make([]candidate.Candidate, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		out[i] = candidate.Candidate{
			ID:         id,
			Name:       "Place " + id,
			Location:   geo.Point{Lat: origin.Lat + float64(i+1)*0.001, Lng: origin.Lng},
			PriceLevel: 2,
			Cuisines:   []string{"thai"},
			Rating:     4.0 + float64(i)/10,
		}
	}
	return out
}

// --- discoveryUseCase mock ---

type mockDiscovery struct {
	discoverFn func(ctx context.Context, req request.Request) (domrank.Result, error)
	refreshFn  func(ctx context.Context, key string) error
}

func (m *mockDiscovery) Discover(ctx context.Context, req request.Request) (domrank.Result, error) {
	return m.discoverFn(ctx, req)
}

func (m *mockDiscovery) Refresh(ctx context.Context, key string) error {
	return m.refreshFn(ctx, key)
}

// --- spendStore mock ---

type mockSpend struct {
	setFn func(ctx context.Context, userID string, period request.Period, budget, spent float64) error
}

func (m *mockSpend) RemainingBudget(context.Context, string, request.Period) (float64, bool, error) {
	return 0, false, nil
}

func (m *mockSpend) SetBudget(ctx context.Context, userID string, period request.Period, budget, spent float64) error {
	return m.setFn(ctx, userID, period, budget, spent)
}
