package health

import (
	"context"

	"github.com/kailas-cloud/dinewise/internal/domain/usage"
)

// storePinger checks the profile/cache store.
type storePinger interface {
	Ping(ctx context.Context) error
}

// modeReader reports whether live provider calls are currently admitted.
type modeReader interface {
	Mode() usage.Mode
}
