package module

import (
	"github.com/onflow/multiphase/module/irrecoverable"
)

// ReadyDoneAware provides an easy interface to wait for module startup and
// shutdown. Modules that implement this interface only support a single
// start-stop cycle.
type ReadyDoneAware interface {
	// Ready returns a channel that will close when module startup has
	// completed.
	Ready() <-chan struct{}

	// Done returns a channel that will close when module shutdown has
	// completed.
	Done() <-chan struct{}
}

// Startable provides an interface to start a component. Once started, the
// component can be stopped by cancelling the given context.
type Startable interface {
	// Start starts the component. Any irrecoverable errors encountered while
	// the component is running should be thrown with the given context.
	Start(irrecoverable.SignalerContext)
}
