// Package memory is a process-local db.Store for tests and single-node use.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/dinewise/internal/db"
)

// Store keeps strings and hashes in maps. JSON documents are stored as raw
// bytes; JSONGet ignores paths and returns the whole document.
type Store struct {
	mu      sync.Mutex
	kv      map[string][]byte
	hashes  map[string]map[string]string
	expires map[string]time.Time
	now     func() time.Time
}

var _ db.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		kv:      make(map[string][]byte),
		hashes:  make(map[string]map[string]string),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// HSet sets fields on a hash.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HGetAll returns a copy of a hash, empty when absent.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)
	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// HGetAllMulti returns copies of several hashes in key order.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		m, err := s.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// Del removes a key of any type.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(key)
	return nil
}

// JSONSet stores a whole document. Only the root path is supported.
func (s *Store) JSONSet(_ context.Context, key, path string, data []byte) error {
	if path != "$" && path != "." {
		return &db.Error{Op: db.OpJSONSet, Key: key, Err: fmt.Errorf("unsupported path %q", path)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, data, 0)
	return nil
}

// JSONGet returns the stored document.
func (s *Store) JSONGet(ctx context.Context, key string, _ ...string) ([]byte, error) {
	return s.Get(ctx, key)
}

// Get returns a string value or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// SetWithTTL stores a string value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value, ttl)
	return nil
}

// IncrByExpireNX adds val to an integer counter (starting from 0) and sets
// its expiry only if it has none.
func (s *Store) IncrByExpireNX(_ context.Context, key string, val int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)

	var cur int64
	if raw, ok := s.kv[key]; ok {
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Key: key, Err: errors.New("value is not an integer")}
		}
		cur = n
	}
	cur += val
	s.kv[key] = []byte(strconv.FormatInt(cur, 10))
	if _, has := s.expires[key]; !has {
		s.expires[key] = s.now().Add(ttl)
	}
	return cur, nil
}

// setLocked stores value; ttl <= 0 means no expiry.
func (s *Store) setLocked(key string, value []byte, ttl time.Duration) {
	delete(s.hashes, key)
	s.kv[key] = append([]byte(nil), value...)
	if ttl > 0 {
		s.expires[key] = s.now().Add(ttl)
	} else {
		delete(s.expires, key)
	}
}

func (s *Store) evictLocked(key string) {
	if exp, ok := s.expires[key]; ok && !s.now().Before(exp) {
		s.deleteLocked(key)
	}
}

func (s *Store) deleteLocked(key string) {
	delete(s.kv, key)
	delete(s.hashes, key)
	delete(s.expires, key)
}
