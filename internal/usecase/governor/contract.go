package governor

import (
	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/domain/usage"
	"github.com/kailas-cloud/dinewise/internal/usecase/ledger"
)

// usageLedger is the consumer interface for the usage ledger (ISP).
type usageLedger interface {
	TryReserve() ledger.Reservation
	RecordCost(amount float64) error
	Snapshot() usage.State
}

// publisher receives advisory events. Publish must not block.
type publisher interface {
	Publish(e event.Event)
}
