// Package feasibility validates externally submitted solutions against a
// snapshot. The check is deterministic, side-effect free, and bounded by the
// snapshot bounds: its cost is what the capture-time limits exist to protect.
package feasibility

import (
	"math"

	"github.com/onflow/multiphase/config/electconf"
	"github.com/onflow/multiphase/election"
	"github.com/onflow/multiphase/election/scoring"
	model "github.com/onflow/multiphase/model/election"
)

// Checker validates raw solutions and recomputes their scores. It holds no
// mutable state; a single instance serves every round.
type Checker struct {
	tolerance uint64
}

var _ election.Checker = (*Checker)(nil)

func NewChecker(conf electconf.Config) *Checker {
	return &Checker{
		tolerance: conf.WeightTolerance,
	}
}

// Check validates the raw solution against the snapshot and returns it with
// its recomputed score. The claimed score is discarded; the submitter and
// deposit fields are left for the caller to fill in.
// Error returns:
//   - model.WrongRoundError if the solution targets another round
//   - model.InvalidIndexError for out-of-bounds or duplicate indices, or
//     edges outside the voter's preference list
//   - model.WeightMismatchError if a voter's edge weights do not sum to its
//     stake within the tolerance
//   - model.WrongWinnerCountError if the backed target count differs from
//     the snapshot's desired winner count
func (c *Checker) Check(snapshot *model.Snapshot, raw *model.RawSolution) (*model.Solution, error) {

	if raw.Round != snapshot.Round {
		return nil, model.WrongRoundError{Submitted: raw.Round, Current: snapshot.Round}
	}

	voterBound := uint32(len(snapshot.Voters))
	targetBound := uint32(len(snapshot.Targets))

	seenVoters := make(map[uint32]struct{}, len(raw.Assignments))
	winners := make(map[uint32]struct{})

	for _, assignment := range raw.Assignments {

		if assignment.Voter >= voterBound {
			return nil, model.InvalidIndexError{Kind: "voter", Index: assignment.Voter, Bound: voterBound}
		}
		if _, ok := seenVoters[assignment.Voter]; ok {
			return nil, model.InvalidIndexError{Kind: "duplicate_voter", Index: assignment.Voter, Bound: voterBound}
		}
		seenVoters[assignment.Voter] = struct{}{}

		voter := snapshot.Voters[assignment.Voter]
		preferred := make(map[model.Identifier]struct{}, len(voter.Preferences))
		for _, pref := range voter.Preferences {
			preferred[pref] = struct{}{}
		}

		var assigned uint64
		overflowed := false
		for _, edge := range assignment.Edges {
			if edge.Target >= targetBound {
				return nil, model.InvalidIndexError{Kind: "target", Index: edge.Target, Bound: targetBound}
			}
			if _, ok := preferred[snapshot.Targets[edge.Target].TargetID]; !ok {
				return nil, model.InvalidIndexError{Kind: "preference", Index: edge.Target, Bound: targetBound}
			}
			if edge.Weight > 0 {
				winners[edge.Target] = struct{}{}
			}
			sum := assigned + edge.Weight
			if sum < assigned {
				overflowed = true
			}
			assigned = sum
		}

		if overflowed || absDiff(assigned, voter.Stake) > c.tolerance {
			if overflowed {
				assigned = math.MaxUint64
			}
			return nil, model.WeightMismatchError{
				Voter:     assignment.Voter,
				Assigned:  assigned,
				Stake:     voter.Stake,
				Tolerance: c.tolerance,
			}
		}
	}

	if uint32(len(winners)) != snapshot.DesiredWinners {
		return nil, model.WrongWinnerCountError{
			Winners: uint32(len(winners)),
			Desired: snapshot.DesiredWinners,
		}
	}

	solution := &model.Solution{
		Round:       raw.Round,
		Assignments: raw.Assignments,
		Score:       scoring.Evaluate(raw.Assignments),
	}
	return solution, nil
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
