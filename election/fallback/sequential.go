// Package fallback implements the in-protocol safety-net election. It is a
// greedy sequential approval election: one winner is added per iteration,
// each time picking the target that maximizes the minimal resulting support,
// with voter stake split evenly across a voter's elected preferences. The
// result is deliberately not globally optimal; what it guarantees is
// deterministic termination in at most desired_winners * target_count
// candidate evaluations.
package fallback

import (
	"bytes"
	"sort"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/onflow/multiphase/election"
	"github.com/onflow/multiphase/election/scoring"
	model "github.com/onflow/multiphase/model/election"
)

// Sequential computes fallback results from a snapshot.
type Sequential struct {
	log zerolog.Logger
}

var _ election.Fallback = (*Sequential)(nil)

func NewSequential(log zerolog.Logger) *Sequential {
	return &Sequential{
		log: log.With().Str("component", "fallback_election").Logger(),
	}
}

// Compute returns a feasible solution for the snapshot.
//
// Ties between candidates yielding identical minimal support break towards
// the lowest target identifier. The tie-break is part of the consensus
// contract: every implementation must agree on it.
//
// Error returns:
//   - model.ErrEmptySnapshot if the snapshot has no voters or targets
//   - model.ErrInsufficientBacking if the computed result cannot give every
//     desired winner nonzero support
func (f *Sequential) Compute(snapshot *model.Snapshot) (*model.Solution, error) {

	if len(snapshot.Voters) == 0 || len(snapshot.Targets) == 0 {
		return nil, model.ErrEmptySnapshot
	}

	// resolve each voter's preferences to sorted, deduplicated target
	// indices; preferences for unknown targets are ignored
	lookup := snapshot.TargetLookup()
	prefs := make([][]uint32, len(snapshot.Voters))
	for i, voter := range snapshot.Voters {
		seen := make(map[uint32]struct{}, len(voter.Preferences))
		for _, pref := range voter.Preferences {
			index, ok := lookup[pref]
			if !ok {
				continue
			}
			if _, dup := seen[index]; dup {
				continue
			}
			seen[index] = struct{}{}
			prefs[i] = append(prefs[i], index)
		}
		sort.Slice(prefs[i], func(a, b int) bool { return prefs[i][a] < prefs[i][b] })
	}

	elected := make(map[uint32]struct{}, snapshot.DesiredWinners)
	for uint32(len(elected)) < snapshot.DesiredWinners {
		best := f.pickNext(snapshot, prefs, elected)
		elected[best] = struct{}{}
	}

	assignments := buildAssignments(snapshot, prefs, elected)

	solution := &model.Solution{
		Round:       snapshot.Round,
		Assignments: assignments,
		Score:       scoring.Evaluate(assignments),
	}

	// every winner must carry nonzero support for the result to pass the
	// feasibility check applied to external submissions; a snapshot with
	// fewer backed targets than desired winners cannot satisfy that
	if uint32(len(solution.Winners())) < snapshot.DesiredWinners {
		return nil, model.ErrInsufficientBacking
	}

	f.log.Info().
		Uint64("round", snapshot.Round).
		Int("winners", len(elected)).
		Str("score", solution.Score.String()).
		Msg("fallback election computed")

	return solution, nil
}

// pickNext evaluates every unelected target as the next winner and returns
// the one maximizing the minimal resulting support, breaking ties towards
// the lowest target identifier.
func (f *Sequential) pickNext(
	snapshot *model.Snapshot,
	prefs [][]uint32,
	elected map[uint32]struct{},
) uint32 {

	var bestIndex uint32
	var bestID model.Identifier
	var bestMin *uint256.Int

	for c := uint32(0); c < uint32(len(snapshot.Targets)); c++ {
		if _, ok := elected[c]; ok {
			continue
		}

		elected[c] = struct{}{}
		minimal := minimalSupport(snapshot, prefs, elected)
		delete(elected, c)

		candidateID := snapshot.Targets[c].TargetID
		if bestMin != nil {
			switch minimal.Cmp(bestMin) {
			case -1:
				continue
			case 0:
				if bytes.Compare(candidateID[:], bestID[:]) >= 0 {
					continue
				}
			}
		}
		bestIndex = c
		bestID = candidateID
		bestMin = minimal
	}

	return bestIndex
}

// minimalSupport computes the support of the least-backed elected target,
// with each voter's stake split evenly across its elected preferences (the
// remainder of the integer division goes to the lowest-index preference,
// mirroring buildAssignments exactly).
func minimalSupport(
	snapshot *model.Snapshot,
	prefs [][]uint32,
	elected map[uint32]struct{},
) *uint256.Int {

	supports := make(map[uint32]*uint256.Int, len(elected))
	for index := range elected {
		supports[index] = new(uint256.Int)
	}

	for i, voter := range snapshot.Voters {
		chosen := chosenPrefs(prefs[i], elected)
		if len(chosen) == 0 {
			continue
		}
		share := voter.Stake / uint64(len(chosen))
		remainder := voter.Stake % uint64(len(chosen))
		for j, index := range chosen {
			weight := share
			if j == 0 {
				weight += remainder
			}
			supports[index].Add(supports[index], uint256.NewInt(weight))
		}
	}

	var minimal *uint256.Int
	for _, support := range supports {
		if minimal == nil || support.Lt(minimal) {
			minimal = support
		}
	}
	return minimal
}

// buildAssignments distributes every voter's stake evenly across its elected
// preferences. Voters with no elected preference are omitted from the
// solution entirely.
func buildAssignments(
	snapshot *model.Snapshot,
	prefs [][]uint32,
	elected map[uint32]struct{},
) []model.Assignment {

	var assignments []model.Assignment
	for i, voter := range snapshot.Voters {
		chosen := chosenPrefs(prefs[i], elected)
		if len(chosen) == 0 {
			continue
		}
		share := voter.Stake / uint64(len(chosen))
		remainder := voter.Stake % uint64(len(chosen))
		edges := make([]model.Edge, 0, len(chosen))
		for j, index := range chosen {
			weight := share
			if j == 0 {
				weight += remainder
			}
			edges = append(edges, model.Edge{Target: index, Weight: weight})
		}
		assignments = append(assignments, model.Assignment{Voter: uint32(i), Edges: edges})
	}
	return assignments
}

// chosenPrefs returns the subset of the voter's preference indices that are
// elected, preserving the sorted order of the preference slice.
func chosenPrefs(prefs []uint32, elected map[uint32]struct{}) []uint32 {
	var chosen []uint32
	for _, index := range prefs {
		if _, ok := elected[index]; ok {
			chosen = append(chosen, index)
		}
	}
	return chosen
}
