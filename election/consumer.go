package election

import (
	model "github.com/onflow/multiphase/model/election"
)

// Consumer consumes observability events from the election provider. All
// callbacks carry the round and the block height at which the event fired.
// Implementations must be non-blocking; they are invoked synchronously from
// the single-threaded state machine.
type Consumer interface {

	// OnPhaseTransition fires whenever the active phase changes, including
	// entry into Done and Emergency at round close.
	OnPhaseTransition(round uint64, height uint64, from model.Phase, to model.Phase)

	// OnSnapshotTaken fires after a successful snapshot capture.
	OnSnapshotTaken(round uint64, height uint64, voters int, targets int)

	// OnSolutionAccepted fires when a feasible solution enters the queue,
	// displacing any previous occupant.
	OnSolutionAccepted(round uint64, height uint64, solutionID model.Identifier, score model.Score)

	// OnSolutionRejected fires for every rejected submission, carrying the
	// specific rejection reason. No rejection is ever silent.
	OnSolutionRejected(round uint64, height uint64, solutionID model.Identifier, err error)

	// OnFallbackInvoked fires when the round closes without an accepted
	// solution and the fallback election runs.
	OnFallbackInvoked(round uint64, height uint64)
}
