package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/kailas-cloud/dinewise/internal/logger"
	healthuc "github.com/kailas-cloud/dinewise/internal/usecase/health"
)

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/discover", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != ErrorResponseCodeInternalError {
		t.Errorf("code = %q", resp.Code)
	}
	if logs.Len() != 1 {
		t.Errorf("got %d error logs, want 1", logs.Len())
	}
}

func TestRecoverer_RepanicsOnAbort(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if recover() != http.ErrAbortHandler { //nolint:errorlint // identity check
			t.Error("ErrAbortHandler must propagate")
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLog(zap.New(core)))
	r.Put("/v1/profiles/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		logpkg.FromContext(r.Context()).Info("saving")
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/v1/profiles/u1", http.NoBody))

	reqID := rr.Header().Get("X-Request-ID")
	if reqID == "" {
		t.Fatal("missing X-Request-ID")
	}
	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != reqID {
		t.Errorf("handler log request_id = %v, want %s", got, reqID)
	}
	line := entries[1]
	fields := line.ContextMap()
	if line.Message != "http_request" || line.Level != zapcore.InfoLevel {
		t.Errorf("line = %s at %s", line.Message, line.Level)
	}
	if fields["route"] != "/v1/profiles/{user_id}" || fields["user_id"] != "u1" || fields["status"] != int64(204) {
		t.Errorf("fields = %v", fields)
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   zapcore.Level
	}{
		{"/v1/discover", 200, zapcore.InfoLevel},
		{"/health", 200, zapcore.DebugLevel},
		{"/health", 503, zapcore.ErrorLevel},
		{"/v1/discover", 429, zapcore.WarnLevel},
		{"/v1/discover", 502, zapcore.ErrorLevel},
	}
	for _, tc := range tests {
		if got := requestLevel(tc.path, tc.status); got != tc.want {
			t.Errorf("requestLevel(%s, %d) = %s, want %s", tc.path, tc.status, got, tc.want)
		}
	}
}

func TestHandler_Stack(t *testing.T) {
	svc := Services{
		Usage:     &mockUsage{},
		Health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		Discovery: &mockDiscovery{},
	}
	h := NewServer(svc, zap.NewNop()).Handler([]string{"secret"})

	rr := do(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("health: status=%d request id=%q", rr.Code, rr.Header().Get("X-Request-ID"))
	}

	if rr := do(t, h, http.MethodGet, "/v1/usage", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("usage without key: status = %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/usage", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("usage with key: status = %d", rr.Code)
	}
}
