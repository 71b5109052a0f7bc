package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/multiphase/election/feasibility"
	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/utils/unittest"
)

func TestComputeEmptySnapshot(t *testing.T) {
	fallback := NewSequential(unittest.Logger())

	_, err := fallback.Compute(&model.Snapshot{Round: 1, DesiredWinners: 2})
	assert.ErrorIs(t, err, model.ErrEmptySnapshot)

	_, err = fallback.Compute(&model.Snapshot{
		Round:          1,
		DesiredWinners: 2,
		Voters:         []model.Voter{unittest.VoterFixture(10)},
	})
	assert.ErrorIs(t, err, model.ErrEmptySnapshot)
}

// The fallback result must pass the same feasibility check applied to
// external submissions.
func TestComputeResultIsFeasible(t *testing.T) {
	fallback := NewSequential(unittest.Logger())
	checker := feasibility.NewChecker(unittest.ElectionConfigFixture())

	snapshot := unittest.SnapshotFixture(4, 2, []uint64{10, 10, 5, 5, 3}, 5)
	solution, err := fallback.Compute(snapshot)
	require.NoError(t, err)

	assert.Equal(t, snapshot.Round, solution.Round)
	assert.Len(t, solution.Winners(), 2)
	assert.Nil(t, solution.Submitter)

	checked, err := checker.Check(snapshot, &model.RawSolution{
		Round:       solution.Round,
		Assignments: solution.Assignments,
	})
	require.NoError(t, err)
	assert.Equal(t, solution.Score, checked.Score)
}

// A snapshot with fewer backed targets than desired winners cannot give
// every winner nonzero support; the result would fail the feasibility check,
// so it is reported as an error instead.
func TestComputeInsufficientBacking(t *testing.T) {
	fallback := NewSequential(unittest.Logger())

	targets := unittest.TargetListFixture(2)
	snapshot := &model.Snapshot{
		Round:          1,
		DesiredWinners: 2,
		Targets:        targets,
		Voters: []model.Voter{
			unittest.VoterFixture(10, targets[0].TargetID),
		},
	}

	_, err := fallback.Compute(snapshot)
	assert.ErrorIs(t, err, model.ErrInsufficientBacking)
}

// Stake splits evenly across a voter's elected preferences, with the
// integer-division remainder going to the lowest-index preference.
func TestComputeStakeSplit(t *testing.T) {
	fallback := NewSequential(unittest.Logger())

	snapshot := unittest.SnapshotFixture(1, 2, []uint64{11}, 2)
	solution, err := fallback.Compute(snapshot)
	require.NoError(t, err)

	require.Len(t, solution.Assignments, 1)
	require.Len(t, solution.Assignments[0].Edges, 2)
	assert.Equal(t, model.Edge{Target: 0, Weight: 6}, solution.Assignments[0].Edges[0])
	assert.Equal(t, model.Edge{Target: 1, Weight: 5}, solution.Assignments[0].Edges[1])
}

// Candidates with identical minimal resulting support tie-break towards the
// lowest target identifier.
func TestComputeTieBreakLowestIdentifier(t *testing.T) {
	fallback := NewSequential(unittest.Logger())

	low := model.Identifier{0x01}
	high := model.Identifier{0xff}
	targets := []model.Target{{TargetID: high}, {TargetID: low}}

	// each voter approves exactly one target with the same stake, so both
	// candidates yield the same minimal support at every step
	snapshot := &model.Snapshot{
		Round:          1,
		DesiredWinners: 1,
		Targets:        targets,
		Voters: []model.Voter{
			{VoterID: unittest.IdentifierFixture(), Stake: 10, Preferences: []model.Identifier{high}},
			{VoterID: unittest.IdentifierFixture(), Stake: 10, Preferences: []model.Identifier{low}},
		},
	}

	solution, err := fallback.Compute(snapshot)
	require.NoError(t, err)

	winners := solution.Winners()
	require.Len(t, winners, 1)
	assert.Equal(t, low, targets[winners[0]].TargetID)
}

// Preferences for unknown targets and duplicated preferences are ignored.
func TestComputeIgnoresUnknownAndDuplicatePreferences(t *testing.T) {
	fallback := NewSequential(unittest.Logger())

	target := unittest.TargetFixture()
	snapshot := &model.Snapshot{
		Round:          1,
		DesiredWinners: 1,
		Targets:        []model.Target{target},
		Voters: []model.Voter{
			{
				VoterID: unittest.IdentifierFixture(),
				Stake:   10,
				Preferences: []model.Identifier{
					target.TargetID,
					unittest.IdentifierFixture(), // unknown
					target.TargetID,              // duplicate
				},
			},
		},
	}

	solution, err := fallback.Compute(snapshot)
	require.NoError(t, err)
	require.Len(t, solution.Assignments, 1)
	assert.Equal(t, []model.Edge{{Target: 0, Weight: 10}}, solution.Assignments[0].Edges)
}

// Voters with no elected preference are omitted from the solution.
func TestComputeOmitsUnrepresentedVoters(t *testing.T) {
	fallback := NewSequential(unittest.Logger())

	popular := unittest.TargetFixture()
	fringe := unittest.TargetFixture()
	snapshot := &model.Snapshot{
		Round:          1,
		DesiredWinners: 1,
		Targets:        []model.Target{popular, fringe},
		Voters: []model.Voter{
			{VoterID: unittest.IdentifierFixture(), Stake: 100, Preferences: []model.Identifier{popular.TargetID}},
			{VoterID: unittest.IdentifierFixture(), Stake: 1, Preferences: []model.Identifier{fringe.TargetID}},
		},
	}

	solution, err := fallback.Compute(snapshot)
	require.NoError(t, err)
	require.Len(t, solution.Assignments, 1)
	assert.Equal(t, uint32(0), solution.Assignments[0].Voter)
}

// Two runs over the same snapshot must produce identical solutions.
func TestComputeDeterministic(t *testing.T) {
	fallback := NewSequential(unittest.Logger())
	snapshot := unittest.SnapshotFixture(9, 3, []uint64{17, 13, 11, 7, 5, 3}, 6)

	first, err := fallback.Compute(snapshot)
	require.NoError(t, err)
	second, err := fallback.Compute(snapshot)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
