package discovery

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kailas-cloud/dinewise/internal/domain"
)

type ticket struct {
	id     string
	cancel context.CancelCauseFunc
}

// slots tracks the in-flight request per UI slot. A new request for a slot
// cancels the previous one with domain.ErrSuperseded.
type slots struct {
	mu     sync.Mutex
	active map[string]ticket
}

func newSlots() *slots {
	return &slots{active: make(map[string]ticket)}
}

// acquire claims slot for the returned context. release must be called when
// the request ends. An empty slot is never superseded.
func (s *slots) acquire(ctx context.Context, slot string) (context.Context, func()) {
	if slot == "" {
		return ctx, func() {}
	}
	cctx, cancel := context.WithCancelCause(ctx)
	t := ticket{id: uuid.NewString(), cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.active[slot]; ok {
		prev.cancel(domain.ErrSuperseded)
	}
	s.active[slot] = t
	s.mu.Unlock()

	return cctx, func() {
		s.mu.Lock()
		if cur, ok := s.active[slot]; ok && cur.id == t.id {
			delete(s.active, slot)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}

// inFlight returns the number of claimed slots.
func (s *slots) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// superseded returns domain.ErrSuperseded once a newer request took the slot.
func superseded(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), domain.ErrSuperseded) {
		return domain.ErrSuperseded
	}
	return nil
}
