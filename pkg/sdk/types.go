package dinewise

import (
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
)

// Domain types exposed as-is.
type (
	Profile             = profile.Profile
	Restriction         = profile.Restriction
	RestrictionKind     = profile.RestrictionKind
	RestrictionSeverity = profile.RestrictionSeverity
	Allergen            = profile.Allergen
	AllergenKind        = profile.AllergenKind
	AllergenSeverity    = profile.AllergenSeverity
	PriceBand           = profile.PriceBand

	Candidate   = candidate.Candidate
	Annotations = candidate.Annotations
	Support     = candidate.Support
	Safety      = candidate.Safety

	Result       = domrank.Result
	Item         = domrank.Item
	BudgetImpact = domrank.BudgetImpact
	Source       = domrank.Source
	Strategy     = domrank.Strategy

	Event     = event.Event
	EventKind = event.Kind

	TimeOfDay = request.TimeOfDay
	Mood      = request.Mood
	Period    = request.Period
)

// Restriction kinds and severities.
const (
	Vegetarian    = profile.Vegetarian
	Vegan         = profile.Vegan
	GlutenFree    = profile.GlutenFree
	DairyFree     = profile.DairyFree
	Halal         = profile.Halal
	Kosher        = profile.Kosher
	Pescatarian   = profile.Pescatarian
	Informational = profile.Informational
	Strict        = profile.Strict
)

// Allergen kinds and severities.
const (
	Peanut    = profile.Peanut
	TreeNut   = profile.TreeNut
	Shellfish = profile.Shellfish
	Fish      = profile.Fish
	Egg       = profile.Egg
	Milk      = profile.Milk
	Soy       = profile.Soy
	Wheat     = profile.Wheat
	Sesame    = profile.Sesame
	Mild      = profile.Mild
	Severe    = profile.Severe
)

// Annotation states.
const (
	Accommodates = candidate.SupportAccommodates
	Conflicts    = candidate.SupportConflicts
	VerifiedSafe = candidate.SafetyVerified
	Contains     = candidate.SafetyContains
)

// Result sources.
const (
	SourceLive  = domrank.SourceLive
	SourceCache = domrank.SourceCache
	SourceStale = domrank.SourceStale
	SourceEmpty = domrank.SourceEmpty
)

// Advisory event kinds.
const (
	EventCostThreshold  = event.KindCostThreshold
	EventDegradedResult = event.KindDegradedResult
)

// Context signals.
const (
	Breakfast       = request.Breakfast
	Lunch           = request.Lunch
	Afternoon       = request.Afternoon
	Dinner          = request.Dinner
	LateNight       = request.LateNight
	QuickBite       = request.MoodQuickBite
	Treat           = request.MoodTreat
	BudgetConscious = request.MoodBudgetConscious
	Week            = request.PeriodWeek
	Month           = request.PeriodMonth
)

// AnyPrice accepts every price level.
var AnyPrice = profile.AnyPrice
