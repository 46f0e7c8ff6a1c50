package usage

import domusage "github.com/kailas-cloud/dinewise/internal/domain/usage"

// StateReader provides read-only access to provider usage state.
type StateReader interface {
	UsageStatus() domusage.State
}
