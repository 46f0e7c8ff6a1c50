package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed discovery request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimited signals that the per-minute request window is full
	// or that the upstream provider answered 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals an exhausted daily cost budget or upstream quota.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrNetwork signals a transient upstream failure (transport error, 5xx, timeout).
	ErrNetwork = errors.New("network error")
	// ErrInvalidConfiguration signals a missing or rejected credential or setting.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidCost signals a negative cost passed to the usage ledger.
	ErrInvalidCost = errors.New("invalid cost")

	// ErrNoFallback signals that no live data and no cached data were available.
	ErrNoFallback = errors.New("no fallback data")
	// ErrSuperseded signals that a newer request for the same slot replaced this one.
	ErrSuperseded = errors.New("request superseded")
)

// FailedError is the terminal Failed outcome of a discovery request:
// the live fetch was impossible or failed and no cached data existed.
type FailedError struct {
	Cause error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Cause.Error(), ErrNoFallback.Error())
}

// Unwrap exposes both the cause and ErrNoFallback to errors.Is.
func (e *FailedError) Unwrap() []error { return []error{e.Cause, ErrNoFallback} }

// NewFailed wraps cause as a Failed outcome.
func NewFailed(cause error) error {
	return &FailedError{Cause: cause}
}

// FailureReason returns a stable machine-readable reason for a Failed outcome,
// e.g. "quota_exceeded/no_fallback".
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded/no_fallback"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited/no_fallback"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration/no_fallback"
	case errors.Is(err, ErrNetwork):
		return "network_error/no_fallback"
	default:
		return "no_fallback"
	}
}
