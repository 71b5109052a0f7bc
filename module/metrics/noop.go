package metrics

import (
	"time"

	model "github.com/onflow/multiphase/model/election"
)

// NoopCollector discards all metrics. Used in tests and tools.
type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) CurrentPhase(phase model.Phase)                {}
func (nc *NoopCollector) CurrentRound(round uint64)                    {}
func (nc *NoopCollector) SnapshotSize(voters int, targets int)         {}
func (nc *NoopCollector) SolutionAccepted(channel string)              {}
func (nc *NoopCollector) SolutionRejected(reason string)               {}
func (nc *NoopCollector) VerificationDuration(duration time.Duration)  {}
func (nc *NoopCollector) FallbackInvoked()                             {}
func (nc *NoopCollector) EmergencyEntered()                            {}
