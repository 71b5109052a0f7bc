// Package queue implements the single-slot solution queue. At most one
// solution is resident at any time; a candidate only displaces the occupant
// by scoring strictly higher. Deposit accounting is exact: every held
// deposit is released exactly once, either on rejection, displacement, or
// when the winning solution is taken at round close.
package queue

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/multiphase/election"
	model "github.com/onflow/multiphase/model/election"
)

// Slot is the single best-solution holder for the current round. It is not
// safe for concurrent use: the provider serializes all access in block
// processing order.
type Slot struct {
	log      zerolog.Logger
	deposits election.Deposits
	best     *model.Solution
}

var _ election.Queue = (*Slot)(nil)

func NewSlot(log zerolog.Logger, deposits election.Deposits) *Slot {
	return &Slot{
		log:      log.With().Str("component", "solution_queue").Logger(),
		deposits: deposits,
	}
}

// Offer seats the candidate iff it scores strictly higher than the occupant
// (or the slot is empty). The candidate's deposit must already be held;
// whichever solution loses has its deposit released here.
// No errors are expected during normal operation.
func (s *Slot) Offer(solution *model.Solution) (bool, error) {

	if s.best != nil && !solution.Score.StrictlyBetter(s.best.Score) {
		err := s.release(solution)
		if err != nil {
			return false, fmt.Errorf("could not refund rejected solution: %w", err)
		}
		return false, nil
	}

	displaced := s.best
	s.best = solution
	if displaced != nil {
		err := s.release(displaced)
		if err != nil {
			return false, fmt.Errorf("could not refund displaced solution: %w", err)
		}
		s.log.Debug().
			Str("displaced_score", displaced.Score.String()).
			Str("new_score", solution.Score.String()).
			Msg("queued solution displaced")
	}

	return true, nil
}

// Best returns the occupant without removing it, or nil.
func (s *Slot) Best() *model.Solution {
	return s.best
}

// TakeBest removes and returns the occupant, or nil if the slot is empty.
// The occupant's deposit is released: from here on the solution belongs to
// the result consumer and the deposit obligation is settled.
// No errors are expected during normal operation.
func (s *Slot) TakeBest() (*model.Solution, error) {
	best := s.best
	s.best = nil
	if best == nil {
		return nil, nil
	}
	err := s.release(best)
	if err != nil {
		return nil, fmt.Errorf("could not release winning deposit: %w", err)
	}
	return best, nil
}

// Restore re-seats a persisted solution after a process restart. The deposit
// was already held before the restart, so no deposit operation happens here.
func (s *Slot) Restore(solution *model.Solution) {
	s.best = solution
}

func (s *Slot) release(solution *model.Solution) error {
	if solution.Submitter == nil || solution.Deposit == 0 {
		return nil
	}
	return s.deposits.Release(*solution.Submitter, solution.Deposit)
}
