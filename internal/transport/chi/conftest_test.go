package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/dinewise/internal/usecase/health"
	usageuc "github.com/kailas-cloud/dinewise/internal/usecase/usage"
)

// --- discoverer mock ---

type mockDiscovery struct {
	discoverFn func(ctx context.Context, req request.Request) (domrank.Result, error)
	refreshFn  func(ctx context.Context, key string) error
}

func (m *mockDiscovery) Discover(ctx context.Context, req request.Request) (domrank.Result, error) {
	return m.discoverFn(ctx, req)
}

func (m *mockDiscovery) Refresh(ctx context.Context, key string) error {
	if m.refreshFn == nil {
		return nil
	}
	return m.refreshFn(ctx, key)
}

// --- usage / health mocks ---

type mockUsage struct {
	report usageuc.Report
}

func (m *mockUsage) GetReport(context.Context) usageuc.Report { return m.report }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- writer mocks ---

type mockProfiles struct {
	saved *profile.Profile
	err   error
}

func (m *mockProfiles) Save(_ context.Context, p *profile.Profile) error {
	m.saved = p
	return m.err
}

type mockAnnotations struct {
	placeID string
	saved   candidate.Annotations
	err     error
}

func (m *mockAnnotations) Put(_ context.Context, placeID string, a candidate.Annotations) error {
	m.placeID, m.saved = placeID, a
	return m.err
}

type mockSpend struct {
	userID        string
	period        request.Period
	budget, spent float64
}

func (m *mockSpend) SetBudget(_ context.Context, userID string, period request.Period, budget, spent float64) error {
	m.userID, m.period, m.budget, m.spent = userID, period, budget, spent
	return nil
}

// --- helpers ---

func newRouter(svc Services) http.Handler {
	if svc.Usage == nil {
		svc.Usage = &mockUsage{}
	}
	if svc.Health == nil {
		svc.Health = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	if svc.Discovery == nil {
		svc.Discovery = &mockDiscovery{}
	}
	r := chi.NewRouter()
	NewServer(svc, zap.NewNop()).Mount(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rr.Body.String())
	}
	return e
}
