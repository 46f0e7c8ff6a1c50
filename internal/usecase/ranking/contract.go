package ranking

import (
	"context"

	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
)

// Batch is a scored candidate set and where it came from.
type Batch struct {
	Scored       []score.Scored
	Source       domrank.Source
	Stale        bool
	CacheKey     string
	RadiusMeters int
}

// Refetcher obtains a scored batch for a wider radius (cache, governor, gateway).
type Refetcher interface {
	Refetch(ctx context.Context, radiusMeters int) (Batch, error)
}

// RefetchFunc adapts a function to Refetcher.
type RefetchFunc func(ctx context.Context, radiusMeters int) (Batch, error)

// Refetch calls f.
func (f RefetchFunc) Refetch(ctx context.Context, radiusMeters int) (Batch, error) {
	return f(ctx, radiusMeters)
}
