package window

import "time"

// Window is a snapshot of the rolling request window.
type Window struct {
	requests int
	limit    int
	span     time.Duration
	resetAt  time.Time
}

// New creates a Window snapshot. resetAt is when the oldest logged request
// leaves the window (zero when the window is empty).
func New(requests, limit int, span time.Duration, resetAt time.Time) Window {
	return Window{requests: requests, limit: limit, span: span, resetAt: resetAt}
}

// Requests returns the number of requests inside the window.
func (w Window) Requests() int { return w.requests }

// Limit returns the per-window ceiling.
func (w Window) Limit() int { return w.limit }

// Span returns the window length.
func (w Window) Span() time.Duration { return w.span }

// ResetAt returns when the next slot frees up.
func (w Window) ResetAt() time.Time { return w.resetAt }

// IsFull reports whether another request would breach the ceiling.
func (w Window) IsFull() bool { return w.requests >= w.limit }
