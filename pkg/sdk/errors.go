package dinewise

import "github.com/kailas-cloud/dinewise/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound             = domain.ErrNotFound
	ErrInvalidRequest       = domain.ErrInvalidRequest
	ErrRateLimited          = domain.ErrRateLimited
	ErrQuotaExceeded        = domain.ErrQuotaExceeded
	ErrNetwork              = domain.ErrNetwork
	ErrInvalidConfiguration = domain.ErrInvalidConfiguration
	ErrNoFallback           = domain.ErrNoFallback
	ErrSuperseded           = domain.ErrSuperseded
)

// FailureReason returns a stable reason such as "quota_exceeded/no_fallback"
// for a discovery that ended without live or cached data.
func FailureReason(err error) string {
	return domain.FailureReason(err)
}
