// Package badger implements the persisted election state on top of a badger
// key-value store, with prefix-coded keys and msgpack-encoded values.
package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/storage"
	"github.com/onflow/multiphase/storage/badger/operation"
)

// Elections implements storage.Elections on badger.
type Elections struct {
	db *badger.DB
}

var _ storage.Elections = (*Elections)(nil)

func NewElections(db *badger.DB) *Elections {
	return &Elections{
		db: db,
	}
}

func (e *Elections) SaveCurrentRound(round uint64) error {
	return operation.RetryOnConflict(e.db.Update, operation.UpsertCurrentRound(round))
}

func (e *Elections) CurrentRound() (uint64, error) {
	var round uint64
	err := e.db.View(operation.RetrieveCurrentRound(&round))
	if err != nil {
		return 0, err
	}
	return round, nil
}

func (e *Elections) SaveSnapshot(snapshot *model.Snapshot) error {
	return operation.RetryOnConflict(e.db.Update, operation.InsertSnapshot(snapshot))
}

func (e *Elections) Snapshot(round uint64) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	err := e.db.View(operation.RetrieveSnapshot(round, &snapshot))
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (e *Elections) SaveQueued(round uint64, solution *model.Solution) error {
	return operation.RetryOnConflict(e.db.Update, operation.UpsertQueuedSolution(round, solution))
}

func (e *Elections) Queued(round uint64) (*model.Solution, error) {
	var solution model.Solution
	err := e.db.View(operation.RetrieveQueuedSolution(round, &solution))
	if err != nil {
		return nil, err
	}
	return &solution, nil
}

func (e *Elections) RemoveQueued(round uint64) error {
	return operation.RetryOnConflict(e.db.Update, operation.RemoveQueuedSolution(round))
}

func (e *Elections) SavePending(round uint64, pending []*model.PendingSubmission) error {
	return operation.RetryOnConflict(e.db.Update, operation.UpsertPendingSubmissions(round, pending))
}

func (e *Elections) Pending(round uint64) ([]*model.PendingSubmission, error) {
	var pending []*model.PendingSubmission
	err := e.db.View(operation.RetrievePendingSubmissions(round, &pending))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (e *Elections) SavePhase(round uint64, phase model.Phase) error {
	return operation.RetryOnConflict(e.db.Update, operation.UpsertPhase(round, phase))
}

func (e *Elections) Phase(round uint64) (model.Phase, error) {
	var phase model.Phase
	err := e.db.View(operation.RetrievePhase(round, &phase))
	if err != nil {
		return model.PhaseOff, err
	}
	return phase, nil
}

func (e *Elections) SaveResult(round uint64, solution *model.Solution) error {
	return operation.RetryOnConflict(e.db.Update, operation.UpsertResult(round, solution))
}

func (e *Elections) Result(round uint64) (*model.Solution, error) {
	var solution model.Solution
	err := e.db.View(operation.RetrieveResult(round, &solution))
	if err != nil {
		return nil, err
	}
	return &solution, nil
}

func (e *Elections) SaveUnsignedMarks(round uint64, submitters []model.Identifier) error {
	return operation.RetryOnConflict(e.db.Update, operation.UpsertUnsignedMarks(round, submitters))
}

func (e *Elections) UnsignedMarks(round uint64) ([]model.Identifier, error) {
	var submitters []model.Identifier
	err := e.db.View(operation.RetrieveUnsignedMarks(round, &submitters))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return submitters, nil
}

func (e *Elections) PruneRound(round uint64) error {
	err := operation.RetryOnConflict(e.db.Update, func(tx *badger.Txn) error {
		for _, op := range []func(*badger.Txn) error{
			operation.RemoveSnapshot(round),
			operation.RemoveQueuedSolution(round),
			operation.RemovePendingSubmissions(round),
			operation.RemovePhase(round),
			operation.RemoveResult(round),
			operation.RemoveUnsignedMarks(round),
		} {
			err := op(tx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not prune round %d: %w", round, err)
	}
	return nil
}
