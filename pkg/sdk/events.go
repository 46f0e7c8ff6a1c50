package dinewise

import (
	"sync"

	"github.com/kailas-cloud/dinewise/internal/domain/event"
)

// Subscribe streams advisory events of the given kinds (all kinds when
// none are given). Events are dropped rather than queued when the reader
// falls behind. The channel closes after cancel or Close.
func (c *Client) Subscribe(kinds ...EventKind) (<-chan Event, func()) {
	sub := c.events.Subscribe(kinds...)
	var once sync.Once
	return sub.Events, func() {
		once.Do(func() { c.events.Unsubscribe(sub.ID) })
	}
}

// ParseEventKind validates an event kind name.
func ParseEventKind(s string) (EventKind, bool) {
	switch k := event.Kind(s); k {
	case event.KindCostThreshold, event.KindDegradedResult:
		return k, true
	default:
		return "", false
	}
}
