package request

import (
	"fmt"

	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
)

// Search radius limits (meters). The provider rejects radii above 50km.
const (
	MinRadius     = 100
	DefaultRadius = 1500
	MaxRadius     = 50_000
	MaxIDLength   = 128
)

// TimeOfDay is a coarse bucket of the local time at the user's origin.
type TimeOfDay string

// Time-of-day buckets.
const (
	TimeUnspecified TimeOfDay = ""
	Breakfast       TimeOfDay = "breakfast"
	Lunch           TimeOfDay = "lunch"
	Afternoon       TimeOfDay = "afternoon"
	Dinner          TimeOfDay = "dinner"
	LateNight       TimeOfDay = "late_night"
)

// IsValid checks if the bucket is one of the supported values.
func (t TimeOfDay) IsValid() bool {
	switch t {
	case TimeUnspecified, Breakfast, Lunch, Afternoon, Dinner, LateNight:
		return true
	}
	return false
}

// Mood is the user's declared intent for this search.
type Mood string

// Declared moods.
const (
	MoodNeutral         Mood = ""
	MoodQuickBite       Mood = "quick_bite"
	MoodTreat           Mood = "treat"
	MoodBudgetConscious Mood = "budget_conscious"
)

// IsValid checks if the mood is one of the supported values.
func (m Mood) IsValid() bool {
	switch m {
	case MoodNeutral, MoodQuickBite, MoodTreat, MoodBudgetConscious:
		return true
	}
	return false
}

// Period is the spend aggregation window for the remaining budget.
type Period string

// Budget periods.
const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Context carries the signals used for contextual re-weighting and budget impact.
type Context struct {
	TimeOfDay TimeOfDay
	Mood      Mood
	Period    Period
	// RemainingBudget is the remaining spend for Period; nil when unknown.
	RemainingBudget *float64
}

// Request is a validated, immutable discovery request.
type Request struct {
	userID  string
	slot    string
	origin  geo.Point
	radius  int
	filters filter.Raw
	context Context
}

// New validates and normalizes discovery parameters.
// Defaults: radius=1500m, period=week. slot may be empty.
func New(
	userID string,
	origin geo.Point,
	radiusMeters int,
	filters filter.Raw,
	ctx Context,
	slot string,
) (Request, error) {
	if userID == "" {
		return Request{}, fmt.Errorf("user id is required")
	}
	if len(userID) > MaxIDLength || len(slot) > MaxIDLength {
		return Request{}, fmt.Errorf("identifier too long (max %d chars)", MaxIDLength)
	}
	if err := origin.Validate(); err != nil {
		return Request{}, fmt.Errorf("origin: %w", err)
	}
	if radiusMeters == 0 {
		radiusMeters = DefaultRadius
	}
	if radiusMeters < MinRadius || radiusMeters > MaxRadius {
		return Request{}, fmt.Errorf("radius must be between %d and %d meters, got %d",
			MinRadius, MaxRadius, radiusMeters)
	}
	if !ctx.TimeOfDay.IsValid() {
		return Request{}, fmt.Errorf("invalid time of day: %q", ctx.TimeOfDay)
	}
	if !ctx.Mood.IsValid() {
		return Request{}, fmt.Errorf("invalid mood: %q", ctx.Mood)
	}
	switch ctx.Period {
	case "":
		ctx.Period = PeriodWeek
	case PeriodWeek, PeriodMonth:
	default:
		return Request{}, fmt.Errorf("invalid budget period: %q", ctx.Period)
	}
	if ctx.RemainingBudget != nil {
		v := *ctx.RemainingBudget
		ctx.RemainingBudget = &v
	}

	return Request{
		userID:  userID,
		slot:    slot,
		origin:  origin,
		radius:  radiusMeters,
		filters: filters,
		context: ctx,
	}, nil
}

// UserID returns the requesting user.
func (r Request) UserID() string { return r.userID }

// Slot returns the UI slot this request occupies ("" = none).
func (r Request) Slot() string { return r.slot }

// Origin returns the search center.
func (r Request) Origin() geo.Point { return r.origin }

// Radius returns the search radius in meters.
func (r Request) Radius() int { return r.radius }

// Filters returns the raw non-safety filters.
func (r Request) Filters() filter.Raw { return r.filters }

// Context returns a copy of the contextual signals.
func (r Request) Context() Context {
	c := r.context
	if c.RemainingBudget != nil {
		v := *c.RemainingBudget
		c.RemainingBudget = &v
	}
	return c
}

// RemainingBudget returns the remaining period budget and whether it is known.
func (r Request) RemainingBudget() (float64, bool) {
	if r.context.RemainingBudget == nil {
		return 0, false
	}
	return *r.context.RemainingBudget, true
}

// WithRadius returns a copy with a new radius, clamped to MaxRadius.
func (r Request) WithRadius(meters int) Request {
	if meters > MaxRadius {
		meters = MaxRadius
	}
	r.radius = meters
	return r
}

// WithFilters returns a copy with a new filter set.
func (r Request) WithFilters(f filter.Raw) Request {
	r.filters = f
	return r
}

// WithRemainingBudget returns a copy carrying the given remaining budget.
func (r Request) WithRemainingBudget(amount float64) Request {
	r.context.RemainingBudget = &amount
	return r
}
