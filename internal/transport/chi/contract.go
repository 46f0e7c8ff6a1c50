package chi

import (
	"context"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	"github.com/kailas-cloud/dinewise/internal/usecase/advisory"
	healthuc "github.com/kailas-cloud/dinewise/internal/usecase/health"
	usageuc "github.com/kailas-cloud/dinewise/internal/usecase/usage"
)

// discoverer is the consumer interface for the discovery facade (ISP).
type discoverer interface {
	Discover(ctx context.Context, req request.Request) (domrank.Result, error)
	Refresh(ctx context.Context, key string) error
}

type usageReporter interface {
	GetReport(ctx context.Context) usageuc.Report
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// eventSource is the advisory stream.
type eventSource interface {
	Subscribe(kinds ...event.Kind) *advisory.Subscription
	Unsubscribe(id string) bool
}

type profileWriter interface {
	Save(ctx context.Context, p *profile.Profile) error
}

type annotationWriter interface {
	Put(ctx context.Context, placeID string, a candidate.Annotations) error
}

type spendWriter interface {
	SetBudget(ctx context.Context, userID string, period request.Period, budget, spent float64) error
}
