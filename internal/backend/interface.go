package backend

import (
	"context"

	"walletguru/internal/amqp"
	"walletguru/internal/claim"
	"walletguru/internal/ledger"
	"walletguru/internal/services"
)

// Backend bundles the infrastructure a walletguru process runs on.
type Backend struct {
	State  ledger.State
	Store  *services.Store
	Claims claim.Claimer
	Broker *amqp.Client // nil when AMQP is not configured or unreachable

	checks  []Check
	closers []CleanupFunc
}

// Check is a named readiness check for one backing service.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// CleanupFunc releases one resource.
type CleanupFunc func() error

// Checks returns the readiness checks of every remote dependency.
func (b *Backend) Checks() []Check {
	return append([]Check(nil), b.checks...)
}

// Publisher returns the broker as a services.Publisher, or nil when there is
// no broker. Returning the typed nil pointer would make the interface non-nil.
func (b *Backend) Publisher() services.Publisher {
	if b.Broker == nil {
		return nil
	}
	return b.Broker
}
