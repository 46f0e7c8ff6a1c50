package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/dinewise/internal/db"
	"github.com/kailas-cloud/dinewise/internal/db/memory"
)

type mockStore struct {
	getFn  func(ctx context.Context, key string) ([]byte, error)
	incrFn func(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	return m.getFn(ctx, key)
}

func (m *mockStore) IncrByExpireNX(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error) {
	return m.incrFn(ctx, key, val, ttl)
}

func TestIncrBy_UsesDefaultTTL(t *testing.T) {
	var gotTTL time.Duration
	var gotVal int64
	s := New(&mockStore{
		incrFn: func(_ context.Context, _ string, val int64, ttl time.Duration) (int64, error) {
			gotVal, gotTTL = val, ttl
			return val, nil
		},
	}, 0)

	if err := s.IncrBy(context.Background(), "dinewise:cost:daily:2026-03-01", 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotVal != 1500 {
		t.Errorf("val = %d", gotVal)
	}
	if gotTTL != DefaultTTL {
		t.Errorf("ttl = %v, want %v", gotTTL, DefaultTTL)
	}
}

func TestIncrBy_Error(t *testing.T) {
	s := New(&mockStore{
		incrFn: func(context.Context, string, int64, time.Duration) (int64, error) {
			return 0, errors.New("boom")
		},
	}, time.Hour)
	if err := s.IncrBy(context.Background(), "k", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_MissingIsZero(t *testing.T) {
	s := New(&mockStore{
		getFn: func(context.Context, string) ([]byte, error) { return nil, db.ErrKeyNotFound },
	}, 0)
	v, err := s.Get(context.Background(), "k")
	if err != nil || v != 0 {
		t.Errorf("Get() = %d, %v", v, err)
	}
}

func TestGet_Parses(t *testing.T) {
	s := New(&mockStore{
		getFn: func(context.Context, string) ([]byte, error) { return []byte("42000"), nil },
	}, 0)
	v, err := s.Get(context.Background(), "k")
	if err != nil || v != 42000 {
		t.Errorf("Get() = %d, %v", v, err)
	}
}

func TestGet_BadValue(t *testing.T) {
	s := New(&mockStore{
		getFn: func(context.Context, string) ([]byte, error) { return []byte("nan"), nil },
	}, 0)
	if _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStore_OverMemory(t *testing.T) {
	ctx := context.Background()
	s := New(memory.NewStore(), time.Hour)

	for _, v := range []int64{32000, 32000, 1500} {
		if err := s.IncrBy(ctx, "dinewise:cost:daily:2026-03-01", v); err != nil {
			t.Fatalf("IncrBy: %v", err)
		}
	}
	got, err := s.Get(ctx, "dinewise:cost:daily:2026-03-01")
	if err != nil || got != 65500 {
		t.Errorf("Get() = %d, %v", got, err)
	}
}
