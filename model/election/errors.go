package election

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySnapshot is a sentinel error returned when snapshot capture (or
	// the fallback election reading a snapshot) finds zero voters or zero
	// targets. It is not locally recoverable: the round escalates to the
	// Emergency phase.
	ErrEmptySnapshot = errors.New("snapshot contains no voters or no targets")

	// ErrInsufficientBacking is a sentinel error returned when fewer targets
	// are backed by staked voter preferences than the desired winner count,
	// so no solution can give every winner nonzero support. Like
	// ErrEmptySnapshot it is not locally recoverable: the round escalates to
	// the Emergency phase.
	ErrInsufficientBacking = errors.New("fewer backed targets than desired winners")

	// ErrNoFallbackResult is a sentinel error returned by Elect when the
	// round closed in the Emergency phase without any result.
	ErrNoFallbackResult = errors.New("no queued solution and no fallback result")

	// ErrSubmitterLimit is a sentinel error returned when an unsigned
	// submitter already had a feasible improvement accepted this round.
	ErrSubmitterLimit = errors.New("unsigned submitter exhausted per-round limit")

	// ErrNotImproving is a sentinel error returned when a solution does not
	// score strictly higher than the queued solution.
	ErrNotImproving = errors.New("solution does not improve on queued solution")

	// ErrValidationExpired is a sentinel error attached to signed submissions
	// that were still unvalidated when the validation window closed; their
	// deposits are refunded.
	ErrValidationExpired = errors.New("signed validation window expired")
)

// BoundsExceededError is returned by snapshot capture under the reject
// policy when a source exceeds a configured bound, and by capture under any
// policy when the target list cannot cover the desired winner count.
type BoundsExceededError struct {
	Resource string
	Limit    uint32
	Actual   uint32
}

func (e BoundsExceededError) Error() string {
	return fmt.Sprintf("snapshot bound exceeded for %s: %d > %d", e.Resource, e.Actual, e.Limit)
}

func IsBoundsExceededError(err error) bool {
	var target BoundsExceededError
	return errors.As(err, &target)
}

// InvalidIndexError is returned by the feasibility checker when a solution
// references a voter or target outside the snapshot, assigns stake to a
// target outside the voter's preference list, or lists the same voter twice.
type InvalidIndexError struct {
	Kind  string
	Index uint32
	Bound uint32
}

func (e InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid %s index %d (bound %d)", e.Kind, e.Index, e.Bound)
}

func IsInvalidIndexError(err error) bool {
	var target InvalidIndexError
	return errors.As(err, &target)
}

// WeightMismatchError is returned by the feasibility checker when a voter's
// edge weights do not sum to the voter's snapshot stake within the
// configured tolerance.
type WeightMismatchError struct {
	Voter     uint32
	Assigned  uint64
	Stake     uint64
	Tolerance uint64
}

func (e WeightMismatchError) Error() string {
	return fmt.Sprintf("voter %d assigned weight %d does not match stake %d (tolerance %d)",
		e.Voter, e.Assigned, e.Stake, e.Tolerance)
}

func IsWeightMismatchError(err error) bool {
	var target WeightMismatchError
	return errors.As(err, &target)
}

// WrongWinnerCountError is returned by the feasibility checker when the set
// of targets with nonzero assigned support differs in size from the
// snapshot's desired winner count.
type WrongWinnerCountError struct {
	Winners uint32
	Desired uint32
}

func (e WrongWinnerCountError) Error() string {
	return fmt.Sprintf("solution elects %d winners, snapshot requires %d", e.Winners, e.Desired)
}

func IsWrongWinnerCountError(err error) bool {
	var target WrongWinnerCountError
	return errors.As(err, &target)
}

// WrongRoundError is returned when a submission targets a round other than
// the one the snapshot belongs to.
type WrongRoundError struct {
	Submitted uint64
	Current   uint64
}

func (e WrongRoundError) Error() string {
	return fmt.Sprintf("submission for round %d, current round is %d", e.Submitted, e.Current)
}

func IsWrongRoundError(err error) bool {
	var target WrongRoundError
	return errors.As(err, &target)
}

// IsFeasibilityError reports whether the error is one of the feasibility
// rejection classes. All of them are local to the offending submission and
// leave the round state untouched.
func IsFeasibilityError(err error) bool {
	return IsInvalidIndexError(err) ||
		IsWeightMismatchError(err) ||
		IsWrongWinnerCountError(err) ||
		IsWrongRoundError(err)
}

// InvalidPhaseError is returned when an operation arrives outside the phase
// that permits it, e.g. a signed submission during the unsigned phase or an
// administrative injection outside the Emergency phase.
type InvalidPhaseError struct {
	Operation string
	Current   Phase
}

func (e InvalidPhaseError) Error() string {
	return fmt.Sprintf("operation %s not permitted in phase %s", e.Operation, e.Current)
}

func IsInvalidPhaseError(err error) bool {
	var target InvalidPhaseError
	return errors.As(err, &target)
}
