// Package election contains the interfaces of the multi-phase election
// provider. Implementations live in the subpackages; the orchestrating state
// machine is in election/multiphase.
package election

import (
	model "github.com/onflow/multiphase/model/election"
)

// Provider is the phased election provider as seen by the outside world: the
// submission interfaces, the result consumer interface, the administrative
// emergency override, and the block-synchronous driver.
//
// The provider is single-threaded by contract: all calls must be serialized
// by the caller (block processing order). The submission engine performs this
// serialization for network-delivered submissions.
type Provider interface {

	// OnFinalizedHeight advances the state machine to the given block height,
	// performing any phase-boundary work (snapshot capture, budgeted signed
	// validation, round close). Heights must be non-decreasing; skipped
	// heights are processed as if each intermediate boundary fired at the
	// first observed height at or past it.
	// No errors are expected during normal operation.
	OnFinalizedHeight(height uint64) error

	// SubmitSigned routes a deposit-bearing submission into the pending
	// validation queue. The deposit is held immediately and released if the
	// submission is later rejected or displaced.
	// Error returns:
	//   - model.InvalidPhaseError if the signed phase is not active
	//   - model.WrongRoundError if the submission targets another round
	SubmitSigned(submitter model.Identifier, raw *model.RawSolution, deposit uint64) error

	// SubmitUnsigned feasibility-checks a deposit-free submission immediately
	// and offers it to the queue.
	// Error returns:
	//   - model.InvalidPhaseError if the unsigned phase is not active
	//   - model.ErrSubmitterLimit if the submitter already had a feasible
	//     improvement accepted this round
	//   - feasibility errors (see model.IsFeasibilityError)
	SubmitUnsigned(submitter model.Identifier, raw *model.RawSolution) error

	// Elect returns the round result: the best accepted solution, or the
	// fallback result computed at the election boundary. It may only be
	// called at or after the round's election height; the result stays
	// available until the next round starts.
	// Error returns:
	//   - model.InvalidPhaseError if the election boundary has not passed
	//   - model.ErrNoFallbackResult if the round closed in Emergency
	Elect() (*model.Solution, error)

	// Inject installs an administratively supplied solution for a round stuck
	// in the Emergency phase, bypassing feasibility checking. Trust is fully
	// delegated to the caller.
	// Error returns:
	//   - model.InvalidPhaseError if the round is not in Emergency
	Inject(solution *model.Solution) error

	// Phase returns the currently active phase.
	Phase() model.Phase

	// Round returns the current round counter.
	Round() uint64
}

// Snapshotter captures the immutable voter/target universe for a round. It
// must be invoked exactly once per round, on first entry into the round's
// submission window.
type Snapshotter interface {
	// Capture freezes the current voter and target sets for the given round.
	// Error returns:
	//   - model.ErrEmptySnapshot if either source is empty
	//   - model.BoundsExceededError under the reject policy, or if fewer
	//     targets exist, or are backed by staked voter preferences, than
	//     desired winners
	Capture(round uint64) (*model.Snapshot, error)
}

// Checker validates the structural correctness of a raw solution against a
// snapshot and recomputes its score. It is deterministic and side-effect
// free: it never mutates the snapshot and holds no state across calls.
type Checker interface {
	// Check returns the validated solution with its recomputed score, or one
	// of the feasibility errors (see model.IsFeasibilityError).
	Check(snapshot *model.Snapshot, raw *model.RawSolution) (*model.Solution, error)
}

// Queue holds at most one best accepted solution per round, with exact
// deposit accounting through the Deposits capability.
type Queue interface {
	// Offer replaces the queued solution iff the candidate scores strictly
	// higher (or the queue is empty). It releases the displaced occupant's
	// deposit on acceptance and the candidate's deposit on rejection. The
	// candidate's deposit must already be held by the caller.
	// No errors are expected during normal operation.
	Offer(solution *model.Solution) (bool, error)

	// Best returns the queued solution without removing it, or nil.
	Best() *model.Solution

	// TakeBest removes and returns the queued solution, releasing its
	// deposit, or returns nil if the queue is empty. Called once at round
	// close; ownership of the solution transfers to the caller.
	// No errors are expected during normal operation.
	TakeBest() (*model.Solution, error)

	// Restore re-seats a previously persisted solution without touching
	// deposits, used on process restart.
	Restore(solution *model.Solution)
}

// Fallback computes a result directly from the snapshot when no external
// solution was accepted. It is deterministic, terminates within a bounded
// number of steps, and trades optimality for that termination guarantee.
type Fallback interface {
	// Compute returns a feasible solution for the snapshot.
	// Error returns:
	//   - model.ErrEmptySnapshot if the snapshot has no voters or targets
	//   - model.ErrInsufficientBacking if the result cannot give every
	//     desired winner nonzero support
	Compute(snapshot *model.Snapshot) (*model.Solution, error)
}
