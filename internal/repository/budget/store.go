package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/dinewise/internal/db"
)

// DefaultTTL keeps a daily cost counter around for one extra day after its period.
const DefaultTTL = 48 * time.Hour

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByExpireNX(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// Store persists daily provider cost counters in fixed-point units.
type Store struct {
	store store
	ttl   time.Duration
}

// New creates a budget store. ttl <= 0 selects DefaultTTL.
func New(s store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{store: s, ttl: ttl}
}

// IncrBy adds val to the counter. The first write of a period fixes its expiry.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if _, err := s.store.IncrByExpireNX(ctx, key, val, s.ttl); err != nil {
		return fmt.Errorf("record cost %s: %w", key, err)
	}
	return nil
}

// Get returns the counter, 0 when the period has no spend yet.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cost %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cost %s: %w", key, err)
	}
	return val, nil
}
