// Package snapshot captures the immutable voter/target universe for a
// round. The bounds it enforces exist to keep feasibility checking a
// bounded-cost operation; they are applied at capture time so that every
// later component can trust the snapshot's size.
package snapshot

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/multiphase/config/electconf"
	"github.com/onflow/multiphase/election"
	model "github.com/onflow/multiphase/model/election"
)

// Manager captures snapshots from the configured voter and target sources.
type Manager struct {
	log     zerolog.Logger
	conf    electconf.Config
	voters  election.VoterSource
	targets election.TargetSource
}

var _ election.Snapshotter = (*Manager)(nil)

func NewManager(
	log zerolog.Logger,
	conf electconf.Config,
	voters election.VoterSource,
	targets election.TargetSource,
) *Manager {
	return &Manager{
		log:     log.With().Str("component", "snapshot_manager").Logger(),
		conf:    conf,
		voters:  voters,
		targets: targets,
	}
}

// Capture freezes the current voter and target sets for the given round.
// Under the truncate policy, sources and preference lists are cut down to
// their bounds in source order; under the reject policy any overflow fails
// the capture.
// Error returns:
//   - model.ErrEmptySnapshot if either source is empty
//   - model.BoundsExceededError on overflow under the reject policy, or if
//     fewer targets exist, or are backed by staked voter preferences, than
//     desired winners
func (m *Manager) Capture(round uint64) (*model.Snapshot, error) {

	// under the reject policy, fetch one entry past the bound so that an
	// overflowing universe is distinguishable from an exactly full one
	voterCap := m.conf.MaxVoters
	targetCap := m.conf.MaxTargets
	if m.conf.Overflow == electconf.Reject {
		voterCap++
		targetCap++
	}

	voters, err := m.voters.Voters(voterCap)
	if err != nil {
		return nil, fmt.Errorf("could not read voter source: %w", err)
	}
	targets, err := m.targets.Targets(targetCap)
	if err != nil {
		return nil, fmt.Errorf("could not read target source: %w", err)
	}

	if len(voters) == 0 || len(targets) == 0 {
		return nil, model.ErrEmptySnapshot
	}

	if m.conf.Overflow == electconf.Reject {
		if uint32(len(voters)) > m.conf.MaxVoters {
			return nil, model.BoundsExceededError{Resource: "voters", Limit: m.conf.MaxVoters, Actual: uint32(len(voters))}
		}
		if uint32(len(targets)) > m.conf.MaxTargets {
			return nil, model.BoundsExceededError{Resource: "targets", Limit: m.conf.MaxTargets, Actual: uint32(len(targets))}
		}
	}

	if uint32(len(targets)) < m.conf.DesiredWinners {
		return nil, model.BoundsExceededError{
			Resource: "desired_winners",
			Limit:    uint32(len(targets)),
			Actual:   m.conf.DesiredWinners,
		}
	}

	for i, voter := range voters {
		if uint32(len(voter.Preferences)) <= m.conf.MaxVoterDegree {
			continue
		}
		if m.conf.Overflow == electconf.Reject {
			return nil, model.BoundsExceededError{
				Resource: "voter_degree",
				Limit:    m.conf.MaxVoterDegree,
				Actual:   uint32(len(voter.Preferences)),
			}
		}
		voters[i].Preferences = voter.Preferences[:m.conf.MaxVoterDegree]
	}

	// the desired winner count must be covered by targets that at least one
	// staked voter prefers: an unbacked target can never carry support, so a
	// shortfall here means no feasible solution exists for the snapshot
	known := make(map[model.Identifier]struct{}, len(targets))
	for _, target := range targets {
		known[target.TargetID] = struct{}{}
	}
	backed := make(map[model.Identifier]struct{})
	for _, voter := range voters {
		if voter.Stake == 0 {
			continue
		}
		for _, pref := range voter.Preferences {
			if _, ok := known[pref]; ok {
				backed[pref] = struct{}{}
			}
		}
	}
	if uint32(len(backed)) < m.conf.DesiredWinners {
		return nil, model.BoundsExceededError{
			Resource: "backed_targets",
			Limit:    uint32(len(backed)),
			Actual:   m.conf.DesiredWinners,
		}
	}

	snap := &model.Snapshot{
		Round:          round,
		DesiredWinners: m.conf.DesiredWinners,
		Voters:         voters,
		Targets:        targets,
	}

	stakeHi, stakeLo := snap.TotalStake()
	m.log.Info().
		Uint64("round", round).
		Int("voters", len(voters)).
		Int("targets", len(targets)).
		Uint32("desired_winners", snap.DesiredWinners).
		Uint64("total_stake_hi", stakeHi).
		Uint64("total_stake_lo", stakeLo).
		Msg("snapshot captured")

	return snap, nil
}
