package storage

import (
	model "github.com/onflow/multiphase/model/election"
)

// Elections persists the election provider's state: the current round, its
// snapshot, the queue contents, the pending signed submissions, the last
// recorded phase and the round result. Everything needed to resume a round
// with exact semantics after a process restart lives behind this interface.
type Elections interface {

	// SaveCurrentRound records the round counter.
	SaveCurrentRound(round uint64) error

	// CurrentRound returns the recorded round counter.
	// Error returns: ErrNotFound if no round was ever recorded.
	CurrentRound() (uint64, error)

	// SaveSnapshot stores the round's snapshot. A snapshot is written exactly
	// once per round.
	// Error returns: ErrAlreadyExists if the round already has a snapshot.
	SaveSnapshot(snapshot *model.Snapshot) error

	// Snapshot returns the stored snapshot for the round.
	// Error returns: ErrNotFound if no snapshot exists for the round.
	Snapshot(round uint64) (*model.Snapshot, error)

	// SaveQueued stores or replaces the round's queued best solution.
	SaveQueued(round uint64, solution *model.Solution) error

	// Queued returns the round's queued best solution.
	// Error returns: ErrNotFound if the queue slot is empty.
	Queued(round uint64) (*model.Solution, error)

	// RemoveQueued clears the round's queue slot.
	RemoveQueued(round uint64) error

	// SavePending stores the round's pending signed submissions, replacing
	// any previous list.
	SavePending(round uint64, pending []*model.PendingSubmission) error

	// Pending returns the round's pending signed submissions, or an empty
	// list if none were stored.
	Pending(round uint64) ([]*model.PendingSubmission, error)

	// SavePhase records the last observed phase of the round, including the
	// terminal Done and Emergency states.
	SavePhase(round uint64, phase model.Phase) error

	// Phase returns the last recorded phase of the round.
	// Error returns: ErrNotFound if the round never recorded a phase.
	Phase(round uint64) (model.Phase, error)

	// SaveResult stores the round's closing result.
	SaveResult(round uint64, solution *model.Solution) error

	// Result returns the round's closing result.
	// Error returns: ErrNotFound if the round has no result.
	Result(round uint64) (*model.Solution, error)

	// SaveUnsignedMarks stores the identities of unsigned submitters that
	// already had an improvement accepted this round.
	SaveUnsignedMarks(round uint64, submitters []model.Identifier) error

	// UnsignedMarks returns the round's recorded unsigned submitters, or an
	// empty list.
	UnsignedMarks(round uint64) ([]model.Identifier, error)

	// PruneRound removes all per-round keys of the given round. Called when
	// the next round's snapshot is taken.
	PruneRound(round uint64) error
}
