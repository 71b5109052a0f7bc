package unittest

import (
	"crypto/rand"
	"fmt"

	"github.com/onflow/multiphase/config/electconf"
	model "github.com/onflow/multiphase/model/election"
)

func IdentifierFixture() model.Identifier {
	var id model.Identifier
	_, err := rand.Read(id[:])
	if err != nil {
		panic(fmt.Sprintf("could not read random bytes: %v", err))
	}
	return id
}

func IdentifierListFixture(n int) []model.Identifier {
	ids := make([]model.Identifier, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, IdentifierFixture())
	}
	return ids
}

func TargetFixture() model.Target {
	return model.Target{
		TargetID: IdentifierFixture(),
	}
}

func TargetListFixture(n int) []model.Target {
	targets := make([]model.Target, 0, n)
	for i := 0; i < n; i++ {
		targets = append(targets, TargetFixture())
	}
	return targets
}

// VoterFixture returns a voter with the given stake preferring the given
// targets in order.
func VoterFixture(stake uint64, prefs ...model.Identifier) model.Voter {
	return model.Voter{
		VoterID:     IdentifierFixture(),
		Stake:       stake,
		Preferences: prefs,
	}
}

// SnapshotFixture returns a snapshot with the given stakes, where every
// voter prefers every target.
func SnapshotFixture(round uint64, desired uint32, stakes []uint64, targetCount int) *model.Snapshot {
	targets := TargetListFixture(targetCount)
	prefs := make([]model.Identifier, 0, targetCount)
	for _, target := range targets {
		prefs = append(prefs, target.TargetID)
	}
	voters := make([]model.Voter, 0, len(stakes))
	for _, stake := range stakes {
		voters = append(voters, VoterFixture(stake, prefs...))
	}
	return &model.Snapshot{
		Round:          round,
		DesiredWinners: desired,
		Voters:         voters,
		Targets:        targets,
	}
}

// FeasibleRawSolution builds a valid raw solution for the snapshot by
// assigning each voter's full stake to one target, round-robin across the
// first desired-winners targets. The snapshot needs at least as many voters
// as desired winners and full preference lists (as SnapshotFixture builds).
func FeasibleRawSolution(snapshot *model.Snapshot) *model.RawSolution {
	assignments := make([]model.Assignment, 0, len(snapshot.Voters))
	for i, voter := range snapshot.Voters {
		target := uint32(i) % snapshot.DesiredWinners
		assignments = append(assignments, model.Assignment{
			Voter: uint32(i),
			Edges: []model.Edge{{Target: target, Weight: voter.Stake}},
		})
	}
	return &model.RawSolution{
		Round:       snapshot.Round,
		Assignments: assignments,
	}
}

// ElectionConfigFixture returns a small, test-friendly configuration:
// round length 100 with the first election at height 100, phases
// signed [50,70), validation [70,80), unsigned [80,100).
func ElectionConfigFixture() electconf.Config {
	conf := electconf.DefaultConfig()
	conf.FirstElectionHeight = 100
	conf.RoundLength = 100
	conf.SignedPhaseLength = 20
	conf.ValidationPhaseLength = 10
	conf.UnsignedPhaseLength = 20
	conf.MaxVoters = 100
	conf.MaxTargets = 10
	conf.MaxVoterDegree = 10
	conf.DesiredWinners = 2
	conf.ValidationBudget = 2
	conf.MaxPendingSigned = 8
	return conf
}

// FixedVoterSource serves a static voter list, respecting the cap.
type FixedVoterSource struct {
	List []model.Voter
}

func (s *FixedVoterSource) Voters(max uint32) ([]model.Voter, error) {
	if uint32(len(s.List)) > max {
		return s.List[:max], nil
	}
	return s.List, nil
}

// FixedTargetSource serves a static target list, respecting the cap.
type FixedTargetSource struct {
	List []model.Target
}

func (s *FixedTargetSource) Targets(max uint32) ([]model.Target, error) {
	if uint32(len(s.List)) > max {
		return s.List[:max], nil
	}
	return s.List, nil
}

// DepositLedger is an exact-accounting test double for the deposit
// capability. It tracks per-owner outstanding holds and running totals, so
// tests can assert deposit conservation at any point.
type DepositLedger struct {
	Outstanding map[model.Identifier]uint64
	TotalHeld   uint64
	TotalFreed  uint64
}

func NewDepositLedger() *DepositLedger {
	return &DepositLedger{
		Outstanding: make(map[model.Identifier]uint64),
	}
}

func (l *DepositLedger) Hold(owner model.Identifier, amount uint64) error {
	l.Outstanding[owner] += amount
	l.TotalHeld += amount
	return nil
}

func (l *DepositLedger) Release(owner model.Identifier, amount uint64) error {
	if l.Outstanding[owner] < amount {
		return fmt.Errorf("releasing %d exceeds outstanding hold %d for owner %x",
			amount, l.Outstanding[owner], owner[:])
	}
	l.Outstanding[owner] -= amount
	l.TotalFreed += amount
	return nil
}

// OutstandingTotal returns the sum of all outstanding holds.
func (l *DepositLedger) OutstandingTotal() uint64 {
	var total uint64
	for _, amount := range l.Outstanding {
		total += amount
	}
	return total
}
