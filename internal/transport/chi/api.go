package chi

import (
	"time"

	"github.com/kailas-cloud/dinewise/internal/domain/profile"
)

// ErrorResponseCode is the machine-readable error code of an API error.
type ErrorResponseCode string

// API error codes.
const (
	ErrorResponseCodeBadRequest           ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized         ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed     ErrorResponseCode = "validation_failed"
	ErrorResponseCodeNotFound             ErrorResponseCode = "not_found"
	ErrorResponseCodeSuperseded           ErrorResponseCode = "superseded"
	ErrorResponseCodeRateLimited          ErrorResponseCode = "rate_limited"
	ErrorResponseCodeQuotaExceeded        ErrorResponseCode = "quota_exceeded"
	ErrorResponseCodeProviderError        ErrorResponseCode = "provider_error"
	ErrorResponseCodeInvalidConfiguration ErrorResponseCode = "invalid_configuration"
	ErrorResponseCodeInternalError        ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
}

// DiscoverRequest is the body of POST /v1/discover.
type DiscoverRequest struct {
	UserID       string          `json:"user_id" validate:"required,max=128"`
	Slot         string          `json:"slot,omitempty" validate:"max=128"`
	Lat          *float64        `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng          *float64        `json:"lng" validate:"required,gte=-180,lte=180"`
	RadiusMeters int             `json:"radius_meters,omitempty" validate:"omitempty,gte=100,lte=50000"`
	Filters      *FiltersPayload `json:"filters,omitempty"`
	Context      *ContextPayload `json:"context,omitempty"`
}

// FiltersPayload is the explicit, relaxable filter set.
type FiltersPayload struct {
	Cuisines []string `json:"cuisines,omitempty" validate:"max=16,dive,required,max=64"`
	MaxPrice *int     `json:"max_price,omitempty" validate:"omitempty,gte=0,lte=4"`
	OpenNow  bool     `json:"open_now,omitempty"`
}

// ContextPayload carries contextual signals.
type ContextPayload struct {
	TimeOfDay       string   `json:"time_of_day,omitempty" validate:"omitempty,oneof=breakfast lunch afternoon dinner late_night"`
	Mood            string   `json:"mood,omitempty" validate:"omitempty,oneof=quick_bite treat budget_conscious"`
	Period          string   `json:"budget_period,omitempty" validate:"omitempty,oneof=week month"`
	RemainingBudget *float64 `json:"remaining_budget,omitempty" validate:"omitempty,gte=0"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Mode         string        `json:"mode"`
	Window       WindowStatus  `json:"window"`
	Budget       BudgetStatus  `json:"budget"`
	CacheHitRate float64       `json:"cache_hit_rate"`
	Period       *PeriodBounds `json:"period,omitempty"`
}

// WindowStatus is the sliding request window.
type WindowStatus struct {
	Requests   int        `json:"requests"`
	Limit      int        `json:"limit"`
	SpanSecond int        `json:"span_seconds"`
	ResetsAt   *time.Time `json:"resets_at,omitempty"`
}

// BudgetStatus is the daily cost budget.
type BudgetStatus struct {
	CostAccrued   float64 `json:"cost_accrued"`
	CostLimit     float64 `json:"cost_limit"`
	CostRemaining float64 `json:"cost_remaining"`
	Fraction      float64 `json:"fraction"`
	IsExhausted   bool    `json:"is_exhausted"`
}

// PeriodBounds is the current daily accounting period.
type PeriodBounds struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// RefreshResponse is the body of POST /v1/cache/{key}/refresh.
type RefreshResponse struct {
	Key         string `json:"key"`
	Invalidated bool   `json:"invalidated"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Mode   string            `json:"mode,omitempty"`
	Checks map[string]string `json:"checks"`
}

// ProfileRequest is the body of PUT /v1/profiles/{user_id}.
type ProfileRequest struct {
	Restrictions []profile.Restriction `json:"restrictions" validate:"max=32,dive"`
	Allergens    []profile.Allergen    `json:"allergens" validate:"max=32,dive"`
	Cuisines     map[string]float64    `json:"cuisines" validate:"max=64,dive,gte=-1,lte=1"`
	PriceBand    *profile.PriceBand    `json:"price_band,omitempty"`
}

// AnnotationRequest is the body of PUT /v1/places/{place_id}/annotations.
type AnnotationRequest struct {
	Dietary   map[string]string `json:"dietary" validate:"dive,oneof=accommodates conflicts"`
	Allergens map[string]string `json:"allergens" validate:"dive,oneof=verified_safe contains"`
}

// SpendRequest is the body of PUT /v1/users/{user_id}/budget.
type SpendRequest struct {
	Period string   `json:"period" validate:"omitempty,oneof=week month"`
	Budget *float64 `json:"budget" validate:"required,gte=0"`
	Spent  float64  `json:"spent" validate:"gte=0"`
}
