// Package candcache is the candidate cache: an in-process LRU with an
// optional Redis/Valkey tier and single-flight loading per key.
package candcache

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/dinewise/internal/db"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
)

// Defaults.
const (
	DefaultTTL            = 24 * time.Hour
	DefaultMaxEntries     = 1024
	DefaultStaleRetention = 7 * 24 * time.Hour
)

// Status is the freshness of a lookup.
type Status int

// Lookup statuses.
const (
	Miss Status = iota
	Fresh
	Stale
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Entry is one cached candidate set. Candidates are shared between readers
// and must not be mutated.
type Entry struct {
	Key string
	// Area is the unfiltered entry this one was filled from, if any.
	Area       string
	Candidates []candidate.Candidate
	FetchedAt  time.Time
	TTLExpiry  time.Time
	Stale      bool
}

// Loader fetches a fresh candidate set for a key.
type Loader func(ctx context.Context) ([]candidate.Candidate, error)

// store is the consumer interface for the shared tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Config holds cache limits.
type Config struct {
	MaxEntries     int
	TTL            time.Duration
	StaleRetention time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore enables the shared Redis/Valkey tier.
func WithStore(s store) Option {
	return func(c *Cache) { c.store = s }
}

// WithLookups attaches a counter vec with label "result" ("fresh"/"stale"/"miss").
func WithLookups(v *prometheus.CounterVec) Option {
	return func(c *Cache) { c.lookups = v }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

type item struct {
	entry Entry
}

// Cache is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element

	cfg     Config
	store   store
	flights singleflight.Group
	lookups *prometheus.CounterVec
	now     func() time.Time
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache. Zero config values select the defaults.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.StaleRetention <= 0 {
		cfg.StaleRetention = DefaultStaleRetention
	}
	c := &Cache{
		ll:     list.New(),
		items:  make(map[string]*list.Element),
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks up key and tags the entry fresh or stale. Counts toward the hit rate.
func (c *Cache) Get(ctx context.Context, key string) (Entry, Status) {
	e, st := c.lookup(ctx, key)
	if st == Fresh {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.lookups != nil {
		c.lookups.WithLabelValues(st.String()).Inc()
	}
	return e, st
}

// Put stores candidates fetched now under key.
func (c *Cache) Put(ctx context.Context, key string, cands []candidate.Candidate) Entry {
	return c.put(ctx, key, "", cands)
}

func (c *Cache) put(ctx context.Context, key, area string, cands []candidate.Candidate) Entry {
	now := c.now()
	e := Entry{
		Key:        key,
		Area:       area,
		Candidates: cands,
		FetchedAt:  now,
		TTLExpiry:  now.Add(c.cfg.TTL),
	}
	c.putLocal(e)
	c.putShared(ctx, e)
	return e
}

// Share fills key from the fresh entry at area, keeping its fetch time and
// expiry. It reports false when area has no fresh entry.
func (c *Cache) Share(ctx context.Context, area, key string) (Entry, bool) {
	if area == key {
		return Entry{}, false
	}
	e, st := c.lookup(ctx, area)
	if st != Fresh {
		return Entry{}, false
	}
	e.Key = key
	e.Area = area
	c.putLocal(e)
	c.putShared(ctx, e)
	return e, true
}

// Invalidate drops key, and the area entry it was filled from, from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	keys := []string{key}
	if e, st := c.lookup(ctx, key); st != Miss && e.Area != "" {
		keys = append(keys, e.Area)
	}
	for _, k := range keys {
		if err := c.drop(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) drop(ctx context.Context, key string) error {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Del(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

// Load returns a fresh entry for key, invoking loader at most once across
// concurrent callers. The shared load runs detached from any single caller's
// cancellation; a caller whose ctx ends stops waiting and gets ctx.Err().
// shared reports whether the result came from another caller's load.
func (c *Cache) Load(ctx context.Context, key string, loader Loader) (entry Entry, shared bool, err error) {
	return c.LoadArea(ctx, key, key, loader)
}

// LoadArea is Load for a filtered key whose data is fetched for area. The
// loaded candidates are stored under both keys, so later filtered searches
// of the same area are served without another live call.
func (c *Cache) LoadArea(ctx context.Context, key, area string, loader Loader) (entry Entry, shared bool, err error) {
	detached := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		// A flight that finished just before this one may have filled the key.
		if e, st := c.lookup(detached, key); st == Fresh {
			return e, nil
		}
		if e, ok := c.Share(detached, area, key); ok {
			return e, nil
		}
		cands, err := loader(detached)
		if err != nil {
			return Entry{}, err
		}
		if area == key {
			return c.put(detached, key, "", cands), nil
		}
		c.put(detached, area, "", cands)
		return c.put(detached, key, area, cands), nil
	})

	select {
	case <-ctx.Done():
		return Entry{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, res.Shared, res.Err
		}
		return res.Val.(Entry), res.Shared, nil
	}
}

// HitRate returns fresh hits / lookups, 0 before the first lookup.
func (c *Cache) HitRate() float64 {
	h, m := c.hits.Load(), c.misses.Load()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

// Len returns the number of in-process entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) lookup(ctx context.Context, key string) (Entry, Status) {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok {
		c.ll.MoveToFront(el)
		e := el.Value.(*item).entry
		c.mu.Unlock()
		return c.tag(e)
	}
	c.mu.Unlock()

	e, ok := c.getShared(ctx, key)
	if !ok {
		return Entry{}, Miss
	}
	c.putLocal(e)
	return c.tag(e)
}

// tag marks e stale once its TTL passed. An entry is never fresh past TTLExpiry.
func (c *Cache) tag(e Entry) (Entry, Status) {
	if c.now().Before(e.TTLExpiry) {
		e.Stale = false
		return e, Fresh
	}
	e.Stale = true
	return e, Stale
}

func (c *Cache) putLocal(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[e.Key]; ok {
		el.Value.(*item).entry = e
		c.ll.MoveToFront(el)
		return
	}
	c.items[e.Key] = c.ll.PushFront(&item{entry: e})
	for c.ll.Len() > c.cfg.MaxEntries {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*item).entry.Key)
	}
}

// entryDTO is the JSON shape stored in the shared tier.
type entryDTO struct {
	Area       string                `json:"area,omitempty"`
	Candidates []candidate.Candidate `json:"candidates"`
	FetchedAt  time.Time             `json:"fetched_at"`
	TTLExpiry  time.Time             `json:"ttl_expiry"`
}

func (c *Cache) getShared(ctx context.Context, key string) (Entry, bool) {
	if c.store == nil {
		return Entry{}, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached candidates", zap.String("key", key), zap.Error(err))
		}
		return Entry{}, false
	}
	var dto entryDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		c.logger.Warn("Failed to parse cached candidates", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	return Entry{
		Key:        key,
		Area:       dto.Area,
		Candidates: dto.Candidates,
		FetchedAt:  dto.FetchedAt,
		TTLExpiry:  dto.TTLExpiry,
	}, true
}

func (c *Cache) putShared(ctx context.Context, e Entry) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(entryDTO{Area: e.Area, Candidates: e.Candidates, FetchedAt: e.FetchedAt, TTLExpiry: e.TTLExpiry})
	if err != nil {
		c.logger.Warn("Failed to encode candidates", zap.String("key", e.Key), zap.Error(err))
		return
	}
	// Kept past TTL so it can still serve as a stale fallback.
	if err := c.store.SetWithTTL(ctx, e.Key, data, c.cfg.TTL+c.cfg.StaleRetention); err != nil {
		c.logger.Warn("Failed to cache candidates", zap.String("key", e.Key), zap.Error(err))
	}
}
