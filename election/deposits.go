package election

import (
	model "github.com/onflow/multiphase/model/election"
)

// Deposits is the capability the solution queue consumes to hold and release
// submission deposits. It is implemented by the surrounding ledger; the
// election core never transfers value itself, it only brackets every held
// amount with exactly one release.
type Deposits interface {
	// Hold locks the given amount against the owner.
	// No errors are expected during normal operation; a failed hold rejects
	// the submission before it enters the pending queue.
	Hold(owner model.Identifier, amount uint64) error

	// Release returns a previously held amount to the owner.
	// No errors are expected during normal operation.
	Release(owner model.Identifier, amount uint64) error
}
