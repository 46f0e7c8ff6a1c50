package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/dinewise/internal/domain/usage"
)

type mockStore struct {
	err         error
	hasDeadline bool
}

func (m *mockStore) Ping(ctx context.Context) error {
	_, m.hasDeadline = ctx.Deadline()
	return m.err
}

type mockMode usage.Mode

func (m mockMode) Mode() usage.Mode { return usage.Mode(m) }

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name       string
		storeErr   error
		mode       usage.Mode
		wantStatus Status
		wantStore  CheckResult
		wantPlaces CheckResult
	}{
		{"all healthy", nil, usage.ModeLive, Healthy, CheckOK, CheckOK},
		{"cache only", nil, usage.ModeCacheOnly, Degraded, CheckOK, CheckCacheOnly},
		{"store down", down, usage.ModeLive, Unhealthy, CheckError, CheckOK},
		{"store down wins over cache only", down, usage.ModeCacheOnly, Unhealthy, CheckError, CheckCacheOnly},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{err: tc.storeErr}
			r := New(store, mockMode(tc.mode)).Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tc.wantStatus)
			}
			if r.Mode != tc.mode {
				t.Errorf("mode = %q, want %q", r.Mode, tc.mode)
			}
			if r.Checks[ComponentStore] != tc.wantStore || r.Checks[ComponentPlaces] != tc.wantPlaces {
				t.Errorf("checks = %v", r.Checks)
			}
			if !store.hasDeadline {
				t.Error("store ping must run under a timeout")
			}
		})
	}
}

func TestCheck_PingTimeout(t *testing.T) {
	svc := New(pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), nil)
	svc.pingTimeout = 10 * time.Millisecond

	if r := svc.Check(context.Background()); r.Status != Unhealthy {
		t.Errorf("status = %q, want %q", r.Status, Unhealthy)
	}
}

func TestCheck_NoDependencies(t *testing.T) {
	r := New(nil, nil).Check(context.Background())
	if r.Status != Healthy || len(r.Checks) != 0 || r.Mode != usage.ModeLive {
		t.Errorf("got %+v", r)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
