package advisory

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain/event"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker(4, zap.NewNop())
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	e := event.NewCostThreshold(at, 8, 10)
	b.Publish(e)

	for _, s := range []*Subscription{s1, s2} {
		select {
		case got := <-s.Events:
			if got.ID != e.ID || got.Kind != event.KindCostThreshold {
				t.Errorf("got %+v", got)
			}
		default:
			t.Errorf("subscriber %s got nothing", s.ID)
		}
	}
}

func TestBroker_KindFilter(t *testing.T) {
	b := NewBroker(4, zap.NewNop())
	s := b.Subscribe(event.KindDegradedResult)

	b.Publish(event.NewCostThreshold(at, 8, 10))
	b.Publish(event.NewDegraded(at, event.Degraded{UserID: "u1", Reason: "stale"}))

	select {
	case got := <-s.Events:
		if got.Kind != event.KindDegradedResult {
			t.Errorf("kind = %s", got.Kind)
		}
	default:
		t.Fatal("expected degraded event")
	}
	select {
	case got := <-s.Events:
		t.Errorf("unexpected event %+v", got)
	default:
	}
}

func TestBroker_NeverBlocks(t *testing.T) {
	b := NewBroker(1, zap.NewNop())
	s := b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(event.NewCostThreshold(at, float64(i), 10))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if b.Dropped() != 9 {
		t.Errorf("dropped = %d, want 9", b.Dropped())
	}
	if got := <-s.Events; got.CostThreshold.Accrued != 0 {
		t.Errorf("first event accrued = %v", got.CostThreshold.Accrued)
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker(1, zap.NewNop())
	s := b.Subscribe()

	if !b.Unsubscribe(s.ID) {
		t.Fatal("Unsubscribe returned false")
	}
	if b.Unsubscribe(s.ID) {
		t.Error("second Unsubscribe returned true")
	}
	if _, ok := <-s.Events; ok {
		t.Error("channel must be closed")
	}
	b.Publish(event.NewCostThreshold(at, 1, 10))
	if b.Subscribers() != 0 {
		t.Errorf("subscribers = %d", b.Subscribers())
	}
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(1, zap.NewNop())
	s := b.Subscribe()
	b.Close()
	b.Close()

	if _, ok := <-s.Events; ok {
		t.Error("channel must be closed")
	}
	late := b.Subscribe()
	if _, ok := <-late.Events; ok {
		t.Error("subscription after Close must be closed")
	}
	b.Publish(event.NewCostThreshold(at, 1, 10))
}

func TestBroker_ConcurrentPublishSubscribe(t *testing.T) {
	b := NewBroker(8, zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := b.Subscribe()
			b.Unsubscribe(s.ID)
		}()
		go func() {
			defer wg.Done()
			b.Publish(event.NewCostThreshold(at, 1, 10))
		}()
	}
	wg.Wait()
	if b.Subscribers() != 0 {
		t.Errorf("subscribers = %d", b.Subscribers())
	}
}
