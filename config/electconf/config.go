// Package electconf holds the configuration of the multi-phase election
// provider: every bound that used to be a compile-time capability in other
// implementations is an explicit field here.
package electconf

import (
	"fmt"
)

// OverflowPolicy decides what snapshot capture does when a source exceeds
// its configured bound.
type OverflowPolicy int

const (
	// Truncate keeps the first bound-many entries in source order.
	Truncate OverflowPolicy = iota
	// Reject fails the capture, forcing the round into Emergency handling.
	Reject
)

func (p OverflowPolicy) String() string {
	switch p {
	case Truncate:
		return "truncate"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Config holds all bounds and schedule parameters of the election provider.
type Config struct {
	// FirstElectionHeight is the block height of round 0's election boundary.
	FirstElectionHeight uint64
	// RoundLength is the number of blocks between consecutive election
	// boundaries.
	RoundLength uint64
	// SignedPhaseLength is the number of blocks accepting signed submissions.
	SignedPhaseLength uint64
	// ValidationPhaseLength is the fixed window, in blocks, for validating
	// queued signed submissions. Submissions still unvalidated when the
	// window closes are refunded and dropped.
	ValidationPhaseLength uint64
	// UnsignedPhaseLength is the number of blocks accepting unsigned
	// submissions.
	UnsignedPhaseLength uint64

	// MaxVoters bounds the snapshot's voter count (V_max).
	MaxVoters uint32
	// MaxTargets bounds the snapshot's target count (T_max).
	MaxTargets uint32
	// MaxVoterDegree bounds each voter's preference list (D_max).
	MaxVoterDegree uint32
	// DesiredWinners is the committee size each round elects.
	DesiredWinners uint32
	// Overflow selects the capture policy when a source exceeds its bound.
	Overflow OverflowPolicy

	// WeightTolerance is the permitted absolute difference between a voter's
	// stake and the sum of its assigned edge weights (epsilon).
	WeightTolerance uint64
	// ValidationBudget is the maximum number of queued signed submissions
	// feasibility-checked per block during the validation phase.
	ValidationBudget uint32
	// MaxPendingSigned caps the pending signed submission queue; submissions
	// past the cap are rejected outright (deposit refunded).
	MaxPendingSigned uint32
}

// DefaultConfig returns the default election configuration.
func DefaultConfig() Config {
	return Config{
		FirstElectionHeight:   defaultFirstElectionHeight,
		RoundLength:           defaultRoundLength,
		SignedPhaseLength:     defaultSignedPhaseLength,
		ValidationPhaseLength: defaultValidationPhaseLength,
		UnsignedPhaseLength:   defaultUnsignedPhaseLength,
		MaxVoters:             defaultMaxVoters,
		MaxTargets:            defaultMaxTargets,
		MaxVoterDegree:        defaultMaxVoterDegree,
		DesiredWinners:        defaultDesiredWinners,
		Overflow:              Truncate,
		WeightTolerance:       defaultWeightTolerance,
		ValidationBudget:      defaultValidationBudget,
		MaxPendingSigned:      defaultMaxPendingSigned,
	}
}

// Validate checks internal consistency of the configuration.
func (c Config) Validate() error {
	if c.RoundLength == 0 {
		return fmt.Errorf("round length must be positive")
	}
	lead := c.SignedPhaseLength + c.ValidationPhaseLength + c.UnsignedPhaseLength
	if lead == 0 {
		return fmt.Errorf("at least one submission phase must be non-empty")
	}
	if lead >= c.RoundLength {
		return fmt.Errorf("phase lengths (%d) must fit within the round length (%d)", lead, c.RoundLength)
	}
	if c.FirstElectionHeight < lead {
		return fmt.Errorf("first election height %d precedes the first signed phase", c.FirstElectionHeight)
	}
	if c.MaxVoters == 0 || c.MaxTargets == 0 {
		return fmt.Errorf("voter and target bounds must be positive")
	}
	if c.DesiredWinners == 0 {
		return fmt.Errorf("desired winner count must be positive")
	}
	if c.DesiredWinners > c.MaxTargets {
		return fmt.Errorf("desired winner count %d exceeds target bound %d", c.DesiredWinners, c.MaxTargets)
	}
	if c.MaxVoterDegree == 0 {
		return fmt.Errorf("voter degree bound must be positive")
	}
	if c.SignedPhaseLength > 0 && c.ValidationBudget == 0 {
		return fmt.Errorf("validation budget must be positive when the signed phase is enabled")
	}
	return nil
}
