// Package advisory fans advisory events out to subscribers.
package advisory

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain/event"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Subscription is one consumer of the advisory stream.
type Subscription struct {
	ID     string
	Events <-chan event.Event

	ch    chan event.Event
	kinds []event.Kind
}

func (s *Subscription) wants(k event.Kind) bool {
	return len(s.kinds) == 0 || slices.Contains(s.kinds, k)
}

// Broker is safe for concurrent use. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool

	buffer  int
	dropped atomic.Int64
	logger  *zap.Logger
}

// NewBroker creates a broker. buffer <= 0 selects DefaultBuffer.
func NewBroker(buffer int, logger *zap.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a consumer for the given kinds (all kinds when empty).
// The channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe(kinds ...event.Kind) *Subscription {
	ch := make(chan event.Event, b.buffer)
	sub := &Subscription{
		ID:     uuid.NewString(),
		Events: ch,
		ch:     ch,
		kinds:  kinds,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	b.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
// Returns false if the id is unknown.
func (b *Broker) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return false
	}
	delete(b.subs, id)
	close(sub.ch)
	return true
}

// Publish delivers e to every matching subscriber without blocking.
func (b *Broker) Publish(e event.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(e.Kind) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.dropped.Add(1)
			b.logger.Debug("Advisory event dropped for slow subscriber",
				zap.String("subscription", sub.ID),
				zap.String("kind", string(e.Kind)),
			)
		}
	}
}

// Dropped returns the number of deliveries skipped because a buffer was full.
func (b *Broker) Dropped() int64 { return b.dropped.Load() }

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscription. Later Publish calls are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
