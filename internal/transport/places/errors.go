package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/kailas-cloud/dinewise/internal/domain"
)

// classify maps a provider or transport error onto the domain sentinels.
// Every non-API error (dial, reset, timeout) is treated as transient.
func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("places search timed out: %w", domain.ErrNetwork)
		}
		return fmt.Errorf("places search: %w", errors.Join(err, domain.ErrNetwork))
	}

	msg := strings.ToLower(gerr.Message)
	for _, item := range gerr.Errors {
		msg += " " + strings.ToLower(item.Reason) + " " + strings.ToLower(item.Message)
	}

	switch {
	case gerr.Code == http.StatusTooManyRequests && strings.Contains(msg, "quota"):
		return fmt.Errorf("places quota %d: %s: %w", gerr.Code, gerr.Message, domain.ErrQuotaExceeded)
	case gerr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("places rate limit: %s: %w", gerr.Message, domain.ErrRateLimited)
	case gerr.Code == http.StatusForbidden && (strings.Contains(msg, "quota") || strings.Contains(msg, "limitexceeded")):
		return fmt.Errorf("places quota %d: %s: %w", gerr.Code, gerr.Message, domain.ErrQuotaExceeded)
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return fmt.Errorf("places credentials rejected %d: %s: %w", gerr.Code, gerr.Message, domain.ErrInvalidConfiguration)
	case gerr.Code == http.StatusBadRequest && strings.Contains(msg, "api key"):
		return fmt.Errorf("places api key rejected: %s: %w", gerr.Message, domain.ErrInvalidConfiguration)
	case gerr.Code == http.StatusBadRequest:
		return fmt.Errorf("places bad request: %s: %w", gerr.Message, domain.ErrInvalidRequest)
	case gerr.Code == http.StatusRequestTimeout || gerr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("places upstream %d: %s: %w", gerr.Code, gerr.Message, domain.ErrNetwork)
	default:
		return fmt.Errorf("places unexpected status %d: %s: %w", gerr.Code, gerr.Message, domain.ErrNetwork)
	}
}

// statusLabel is the metrics label for a terminal error.
func statusLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "network"
	}
}
