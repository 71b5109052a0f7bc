// Package module declares the small cross-cutting interfaces consumed by
// multiple components: metrics collection and lifecycle.
package module

import (
	"time"

	model "github.com/onflow/multiphase/model/election"
)

// ElectionMetrics tracks the health of the election provider.
type ElectionMetrics interface {

	// CurrentPhase records the active phase.
	CurrentPhase(phase model.Phase)

	// CurrentRound records the active round counter.
	CurrentRound(round uint64)

	// SnapshotSize records the dimensions of a captured snapshot.
	SnapshotSize(voters int, targets int)

	// SolutionAccepted counts a solution entering the queue, by channel
	// ("signed" or "unsigned").
	SolutionAccepted(channel string)

	// SolutionRejected counts a rejected submission, by rejection reason.
	SolutionRejected(reason string)

	// VerificationDuration records how long one feasibility check took.
	VerificationDuration(duration time.Duration)

	// FallbackInvoked counts a round closing through the fallback election.
	FallbackInvoked()

	// EmergencyEntered counts a round closing in the Emergency phase.
	EmergencyEntered()
}
