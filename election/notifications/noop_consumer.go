// Package notifications provides implementations of the election.Consumer
// interface: a no-op base, a structured-log consumer, and (in the pubsub
// subpackage) a distributor fanning events out to multiple consumers.
package notifications

import (
	"github.com/onflow/multiphase/election"
	model "github.com/onflow/multiphase/model/election"
)

// NoopConsumer is a no-op implementation of election.Consumer. It can be
// embedded to selectively override individual callbacks.
type NoopConsumer struct{}

var _ election.Consumer = (*NoopConsumer)(nil)

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (*NoopConsumer) OnPhaseTransition(uint64, uint64, model.Phase, model.Phase) {}

func (*NoopConsumer) OnSnapshotTaken(uint64, uint64, int, int) {}

func (*NoopConsumer) OnSolutionAccepted(uint64, uint64, model.Identifier, model.Score) {}

func (*NoopConsumer) OnSolutionRejected(uint64, uint64, model.Identifier, error) {}

func (*NoopConsumer) OnFallbackInvoked(uint64, uint64) {}
