package discovery

import (
	"context"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	"github.com/kailas-cloud/dinewise/internal/domain/usage"
	"github.com/kailas-cloud/dinewise/internal/repository/candcache"
	"github.com/kailas-cloud/dinewise/internal/transport/places"
	"github.com/kailas-cloud/dinewise/internal/usecase/governor"
	"github.com/kailas-cloud/dinewise/internal/usecase/ranking"
	"github.com/kailas-cloud/dinewise/internal/usecase/scoring"
)

// ProfileReader loads a user's dietary profile (read-only).
type ProfileReader interface {
	Profile(ctx context.Context, userID string) (*profile.Profile, error)
}

// BudgetReader loads the remaining dining budget for a period (read-only).
type BudgetReader interface {
	RemainingBudget(ctx context.Context, userID string, period request.Period) (float64, bool, error)
}

// AnnotationReader loads community safety annotations by place id.
type AnnotationReader interface {
	Annotations(ctx context.Context, placeIDs []string) (map[string]candidate.Annotations, error)
}

// CandidateCache stores candidate sets by cache key.
type CandidateCache interface {
	Get(ctx context.Context, key string) (candcache.Entry, candcache.Status)
	Share(ctx context.Context, area, key string) (candcache.Entry, bool)
	LoadArea(ctx context.Context, key, area string, loader candcache.Loader) (candcache.Entry, bool, error)
	Invalidate(ctx context.Context, key string) error
	HitRate() float64
}

// Gateway performs live provider searches.
type Gateway interface {
	Fetch(ctx context.Context, q places.Query) ([]candidate.Candidate, error)
	EstimatedCost() float64
}

// Admission gates live fetches on rate and cost.
type Admission interface {
	Authorize(estimatedCost float64) (governor.Admission, error)
}

// UsageSnapshotter exposes the ledger state.
type UsageSnapshotter interface {
	Snapshot() usage.State
}

// Scorer scores candidates against a profile.
type Scorer interface {
	ScoreAll(ctx context.Context, cands []candidate.Candidate, p *profile.Profile, f scoring.Frame) ([]score.Scored, error)
}

// Ranker turns scored candidates into the final result.
type Ranker interface {
	Rank(ctx context.Context, req request.Request, batch ranking.Batch, refetcher ranking.Refetcher) (domrank.Result, error)
}

// Publisher receives advisory events. Publish must not block.
type Publisher interface {
	Publish(e event.Event)
}
