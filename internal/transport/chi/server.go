package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/dinewise/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Services are the use cases behind the HTTP API. Events, Profiles,
// Annotations and Spend are optional; their routes are not mounted when nil.
type Services struct {
	Discovery   discoverer
	Usage       usageReporter
	Health      healthChecker
	Events      eventSource
	Profiles    profileWriter
	Annotations annotationWriter
	Spend       spendWriter
}

// Server serves the dinewise HTTP API.
type Server struct {
	svc           Services
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	s := &Server{svc: svc, logger: logger}
	s.errorHandlers = []errorHandler{
		failedHandler,
		sentinelHandler(domain.ErrSuperseded, http.StatusConflict, ErrorResponseCodeSuperseded),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusServiceUnavailable, ErrorResponseCodeQuotaExceeded),
		sentinelHandler(domain.ErrNetwork, http.StatusBadGateway, ErrorResponseCodeProviderError),
	}
	return s
}

// Mount registers every route on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/discover", s.Discover)
		r.Get("/usage", s.GetUsage)
		r.Post("/cache/{key}/refresh", s.RefreshCache)
		if s.svc.Events != nil {
			r.Get("/events", s.StreamEvents)
		}
		if s.svc.Profiles != nil {
			r.Put("/profiles/{user_id}", s.PutProfile)
		}
		if s.svc.Annotations != nil {
			r.Put("/places/{place_id}/annotations", s.PutAnnotations)
		}
		if s.svc.Spend != nil {
			r.Put("/users/{user_id}/budget", s.PutBudget)
		}
	})
}

// Discover handles POST /v1/discover.
func (s *Server) Discover(w http.ResponseWriter, r *http.Request) {
	var body DiscoverRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	req, err := discoverRequestFromBody(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	res, err := s.svc.Discovery.Discover(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setResultHeaders(w, &res)
	writeJSON(w, http.StatusOK, res)
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Usage.GetReport(r.Context())

	resp := UsageResponse{
		Mode: string(report.Mode),
		Window: WindowStatus{
			Requests:   report.RequestsInWindow,
			Limit:      report.WindowLimit,
			SpanSecond: int(report.WindowSpan.Seconds()),
		},
		Budget: BudgetStatus{
			CostAccrued:   report.DailyCostAccrued,
			CostLimit:     report.DailyCostLimit,
			CostRemaining: report.DailyCostRemaining,
			Fraction:      report.DailyCostFraction,
			IsExhausted:   report.Exhausted,
		},
		CacheHitRate: report.CacheHitRate,
	}
	if !report.WindowResetAt.IsZero() {
		resetAt := report.WindowResetAt.UTC()
		resp.Window.ResetsAt = &resetAt
	}
	if !report.PeriodEnd.IsZero() {
		resp.Period = &PeriodBounds{StartAt: report.PeriodStart.UTC(), EndAt: report.PeriodEnd.UTC()}
	}

	writeJSON(w, http.StatusOK, resp)
}

// RefreshCache handles POST /v1/cache/{key}/refresh.
func (s *Server) RefreshCache(w http.ResponseWriter, r *http.Request) {
	var key string
	if err := bindPathParam(r, "key", &key); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}

	if err := s.svc.Discovery.Refresh(r.Context(), key); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{Key: key, Invalidated: true})
}

// PutProfile handles PUT /v1/profiles/{user_id}.
func (s *Server) PutProfile(w http.ResponseWriter, r *http.Request) {
	var userID string
	if err := bindPathParam(r, "user_id", &userID); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}
	var body ProfileRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	p := &profile.Profile{
		UserID:       userID,
		Restrictions: body.Restrictions,
		Allergens:    body.Allergens,
		Cuisines:     body.Cuisines,
		PriceBand:    body.PriceBand,
	}
	p.Normalize()

	if err := s.svc.Profiles.Save(r.Context(), p); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutAnnotations handles PUT /v1/places/{place_id}/annotations.
func (s *Server) PutAnnotations(w http.ResponseWriter, r *http.Request) {
	var placeID string
	if err := bindPathParam(r, "place_id", &placeID); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}
	var body AnnotationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	a := candidate.Annotations{
		Dietary:   make(map[profile.RestrictionKind]candidate.Support, len(body.Dietary)),
		Allergens: make(map[profile.AllergenKind]candidate.Safety, len(body.Allergens)),
	}
	for k, v := range body.Dietary {
		a.Dietary[profile.RestrictionKind(k)] = candidate.Support(v)
	}
	for k, v := range body.Allergens {
		a.Allergens[profile.AllergenKind(k)] = candidate.Safety(v)
	}

	if err := s.svc.Annotations.Put(r.Context(), placeID, a); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutBudget handles PUT /v1/users/{user_id}/budget.
func (s *Server) PutBudget(w http.ResponseWriter, r *http.Request) {
	var userID string
	if err := bindPathParam(r, "user_id", &userID); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}
	var body SpendRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	period := request.Period(body.Period)
	if period == "" {
		period = request.PeriodWeek
	}
	if err := s.svc.Spend.SetBudget(r.Context(), userID, period, *body.Budget, body.Spent); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Mode:   string(report.Mode),
		Checks: checks,
	})
}

func discoverRequestFromBody(body *DiscoverRequest) (request.Request, error) {
	f := filter.None
	if body.Filters != nil {
		maxPrice := -1
		if body.Filters.MaxPrice != nil {
			maxPrice = *body.Filters.MaxPrice
		}
		var err error
		f, err = filter.New(body.Filters.Cuisines, maxPrice, body.Filters.OpenNow)
		if err != nil {
			return request.Request{}, err //nolint:wrapcheck // message is returned to the client as-is
		}
	}

	var rc request.Context
	if c := body.Context; c != nil {
		rc = request.Context{
			TimeOfDay:       request.TimeOfDay(c.TimeOfDay),
			Mood:            request.Mood(c.Mood),
			Period:          request.Period(c.Period),
			RemainingBudget: c.RemainingBudget,
		}
	}

	origin := geo.Point{Lat: *body.Lat, Lng: *body.Lng}
	return request.New(body.UserID, origin, body.RadiusMeters, f, rc, body.Slot) //nolint:wrapcheck // see above
}

func bindPathParam(r *http.Request, name string, dst *string) error {
	return runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dst, //nolint:wrapcheck
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
}

func setResultHeaders(w http.ResponseWriter, res *domrank.Result) {
	w.Header().Set("X-Dinewise-Source", string(res.Source))
	w.Header().Set("X-Dinewise-Degraded", strconv.FormatBool(res.Degraded))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns the outermost message without wrapped internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
		domain.ErrSuperseded,
		domain.ErrRateLimited,
		domain.ErrQuotaExceeded,
		domain.ErrNetwork,
		domain.ErrInvalidConfiguration,
		domain.ErrNoFallback,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// failedHandler answers a Failed discovery outcome with the status of its
// cause and the machine-readable failure reason.
func failedHandler(w http.ResponseWriter, err error, msg string) bool {
	var failed *domain.FailedError
	if !errors.As(err, &failed) {
		return false
	}

	status, code := http.StatusServiceUnavailable, ErrorResponseCodeProviderError
	switch {
	case errors.Is(failed.Cause, domain.ErrQuotaExceeded):
		code = ErrorResponseCodeQuotaExceeded
	case errors.Is(failed.Cause, domain.ErrRateLimited):
		status, code = http.StatusTooManyRequests, ErrorResponseCodeRateLimited
	case errors.Is(failed.Cause, domain.ErrInvalidConfiguration):
		code = ErrorResponseCodeInvalidConfiguration
	case errors.Is(failed.Cause, domain.ErrNetwork):
		status = http.StatusBadGateway
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg, Reason: domain.FailureReason(err)})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
