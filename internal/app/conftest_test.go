package app

import (
	"context"
	"sync"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/transport/places"
)

// fakeGateway serves a fixed candidate set.
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
