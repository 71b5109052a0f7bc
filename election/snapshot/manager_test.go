package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/multiphase/config/electconf"
	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/utils/unittest"
)

func managerFixture(conf electconf.Config, voters []model.Voter, targets []model.Target) *Manager {
	return NewManager(
		unittest.Logger(),
		conf,
		&unittest.FixedVoterSource{List: voters},
		&unittest.FixedTargetSource{List: targets},
	)
}

func TestCaptureWithinBounds(t *testing.T) {
	conf := unittest.ElectionConfigFixture()
	targets := unittest.TargetListFixture(3)
	voters := []model.Voter{
		unittest.VoterFixture(10, targets[0].TargetID, targets[1].TargetID),
		unittest.VoterFixture(5, targets[2].TargetID),
	}

	manager := managerFixture(conf, voters, targets)
	snap, err := manager.Capture(3)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), snap.Round)
	assert.Equal(t, conf.DesiredWinners, snap.DesiredWinners)
	assert.Equal(t, voters, snap.Voters)
	assert.Equal(t, targets, snap.Targets)
}

func TestCaptureEmptySources(t *testing.T) {
	conf := unittest.ElectionConfigFixture()
	targets := unittest.TargetListFixture(3)
	voters := []model.Voter{unittest.VoterFixture(10, targets[0].TargetID)}

	t.Run("no voters", func(t *testing.T) {
		manager := managerFixture(conf, nil, targets)
		_, err := manager.Capture(1)
		assert.ErrorIs(t, err, model.ErrEmptySnapshot)
	})

	t.Run("no targets", func(t *testing.T) {
		manager := managerFixture(conf, voters, nil)
		_, err := manager.Capture(1)
		assert.ErrorIs(t, err, model.ErrEmptySnapshot)
	})
}

// Under the truncate policy, overflowing sources are cut to their bounds in
// source order, and overlong preference lists are cut to the degree bound.
func TestCaptureTruncate(t *testing.T) {
	conf := unittest.ElectionConfigFixture()
	conf.Overflow = electconf.Truncate
	conf.MaxVoters = 2
	conf.MaxTargets = 2
	conf.MaxVoterDegree = 1

	targets := unittest.TargetListFixture(4)
	voters := []model.Voter{
		unittest.VoterFixture(10, targets[0].TargetID, targets[1].TargetID),
		unittest.VoterFixture(5, targets[1].TargetID),
		unittest.VoterFixture(3, targets[0].TargetID),
	}

	manager := managerFixture(conf, voters, targets)
	snap, err := manager.Capture(1)
	require.NoError(t, err)

	assert.Len(t, snap.Voters, 2)
	assert.Len(t, snap.Targets, 2)
	assert.Equal(t, targets[:2], snap.Targets)
	assert.Equal(t, []model.Identifier{targets[0].TargetID}, snap.Voters[0].Preferences)
}

// Under the reject policy, any overflow fails the capture.
func TestCaptureReject(t *testing.T) {
	conf := unittest.ElectionConfigFixture()
	conf.Overflow = electconf.Reject
	conf.MaxVoters = 2
	conf.MaxTargets = 4
	conf.MaxVoterDegree = 2

	targets := unittest.TargetListFixture(4)

	t.Run("too many voters", func(t *testing.T) {
		voters := []model.Voter{
			unittest.VoterFixture(10, targets[0].TargetID),
			unittest.VoterFixture(5, targets[1].TargetID),
			unittest.VoterFixture(3, targets[2].TargetID),
		}
		manager := managerFixture(conf, voters, targets)
		_, err := manager.Capture(1)
		assert.True(t, model.IsBoundsExceededError(err), "got: %v", err)
	})

	t.Run("too many targets", func(t *testing.T) {
		narrow := conf
		narrow.MaxTargets = 3
		narrow.DesiredWinners = 2
		voters := []model.Voter{unittest.VoterFixture(10, targets[0].TargetID)}
		manager := managerFixture(narrow, voters, targets)
		_, err := manager.Capture(1)
		assert.True(t, model.IsBoundsExceededError(err), "got: %v", err)
	})

	t.Run("degree too high", func(t *testing.T) {
		voters := []model.Voter{
			unittest.VoterFixture(10, targets[0].TargetID, targets[1].TargetID, targets[2].TargetID),
		}
		manager := managerFixture(conf, voters, targets)
		_, err := manager.Capture(1)
		assert.True(t, model.IsBoundsExceededError(err), "got: %v", err)
	})

	t.Run("exactly full is fine", func(t *testing.T) {
		voters := []model.Voter{
			unittest.VoterFixture(10, targets[0].TargetID, targets[1].TargetID),
			unittest.VoterFixture(5, targets[2].TargetID),
		}
		manager := managerFixture(conf, voters, targets)
		snap, err := manager.Capture(1)
		require.NoError(t, err)
		assert.Len(t, snap.Voters, 2)
		assert.Len(t, snap.Targets, 4)
	})
}

// A target no staked voter prefers can never carry support, so a capture
// leaving fewer backed targets than desired winners fails under every policy.
func TestCaptureInsufficientBacking(t *testing.T) {
	conf := unittest.ElectionConfigFixture()
	targets := unittest.TargetListFixture(2)

	t.Run("unreferenced target", func(t *testing.T) {
		voters := []model.Voter{unittest.VoterFixture(10, targets[0].TargetID)}
		manager := managerFixture(conf, voters, targets)
		_, err := manager.Capture(1)
		assert.True(t, model.IsBoundsExceededError(err), "got: %v", err)
	})

	t.Run("zero-stake backing does not count", func(t *testing.T) {
		voters := []model.Voter{
			unittest.VoterFixture(10, targets[0].TargetID),
			unittest.VoterFixture(0, targets[1].TargetID),
		}
		manager := managerFixture(conf, voters, targets)
		_, err := manager.Capture(1)
		assert.True(t, model.IsBoundsExceededError(err), "got: %v", err)
	})

	t.Run("exactly covered passes", func(t *testing.T) {
		voters := []model.Voter{
			unittest.VoterFixture(10, targets[0].TargetID),
			unittest.VoterFixture(5, targets[1].TargetID),
		}
		manager := managerFixture(conf, voters, targets)
		_, err := manager.Capture(1)
		require.NoError(t, err)
	})
}

// A capture yielding fewer targets than desired winners fails under every
// policy: no feasible solution could exist for such a snapshot.
func TestCaptureInsufficientTargets(t *testing.T) {
	conf := unittest.ElectionConfigFixture()
	conf.DesiredWinners = 3

	targets := unittest.TargetListFixture(2)
	voters := []model.Voter{unittest.VoterFixture(10, targets[0].TargetID)}

	manager := managerFixture(conf, voters, targets)
	_, err := manager.Capture(1)
	assert.True(t, model.IsBoundsExceededError(err), "got: %v", err)
}
