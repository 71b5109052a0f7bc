// Package phases derives the active election phase from the block height.
// The derivation is a pure function of height and configuration: there are
// no timers and no hidden state, so replaying any height (e.g. after a
// restart or a chain re-org) reproduces the same phase.
package phases

import (
	"fmt"

	"github.com/onflow/multiphase/config/electconf"
	model "github.com/onflow/multiphase/model/election"
)

// Schedule maps block heights to rounds and phases. Round r's election
// boundary sits at FirstElectionHeight + r*RoundLength; the signed,
// validation and unsigned phases occupy the blocks leading up to it, in that
// order, with everything earlier being Off.
type Schedule struct {
	firstElection uint64
	roundLength   uint64
	signedLen     uint64
	validationLen uint64
	unsignedLen   uint64
}

// NewSchedule builds a schedule from the given configuration.
func NewSchedule(conf electconf.Config) (*Schedule, error) {
	err := conf.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid schedule config: %w", err)
	}
	s := &Schedule{
		firstElection: conf.FirstElectionHeight,
		roundLength:   conf.RoundLength,
		signedLen:     conf.SignedPhaseLength,
		validationLen: conf.ValidationPhaseLength,
		unsignedLen:   conf.UnsignedPhaseLength,
	}
	return s, nil
}

// ElectionHeight returns the election boundary of the given round.
func (s *Schedule) ElectionHeight(round uint64) uint64 {
	return s.firstElection + round*s.roundLength
}

// RoundAt returns the round the given height belongs to: the round with the
// smallest election boundary at or past the height. The blocks immediately
// after a boundary belong to the next round (its Off phase).
func (s *Schedule) RoundAt(height uint64) uint64 {
	if height <= s.firstElection {
		return 0
	}
	return (height - s.firstElection + s.roundLength - 1) / s.roundLength
}

// PhaseAt returns the schedule-derived phase active at the given height.
// The election boundary itself reports Off: round close happens while
// processing the boundary block, after which the round is idle. Done and
// Emergency are recorded states layered on top by the provider and never
// returned here.
func (s *Schedule) PhaseAt(height uint64) model.Phase {
	election := s.ElectionHeight(s.RoundAt(height))
	if height == election {
		return model.PhaseOff
	}
	lead := election - height
	switch {
	case lead <= s.unsignedLen:
		return model.PhaseUnsigned
	case lead <= s.unsignedLen+s.validationLen:
		return model.PhaseSignedValidation
	case lead <= s.unsignedLen+s.validationLen+s.signedLen:
		return model.PhaseSigned
	default:
		return model.PhaseOff
	}
}

// IsElectionBoundary reports whether the given height is a round's election
// boundary.
func (s *Schedule) IsElectionBoundary(height uint64) bool {
	if height < s.firstElection {
		return false
	}
	return (height-s.firstElection)%s.roundLength == 0
}

// SignedStart returns the first height of the given round's signed phase,
// i.e. the height at which the snapshot must be captured.
func (s *Schedule) SignedStart(round uint64) uint64 {
	return s.ElectionHeight(round) - s.unsignedLen - s.validationLen - s.signedLen
}
