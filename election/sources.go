package election

import (
	model "github.com/onflow/multiphase/model/election"
)

// VoterSource supplies the live voter set at snapshot capture. The returned
// slice must be in a stable, source-defined order: the snapshot freezes it
// as-is and solution indices refer into it.
type VoterSource interface {
	// Voters returns the voter universe capped at max entries. The snapshot
	// manager passes a cap one above its bound when it needs to distinguish
	// an exactly-full universe from an overflowing one.
	Voters(max uint32) ([]model.Voter, error)
}

// TargetSource supplies the live target set at snapshot capture, with the
// same ordering contract as VoterSource.
type TargetSource interface {
	Targets(max uint32) ([]model.Target, error)
}
