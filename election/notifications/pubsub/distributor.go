// Package pubsub distributes election events to all subscribed consumers.
package pubsub

import (
	"sync"

	"github.com/onflow/multiphase/election"
	model "github.com/onflow/multiphase/model/election"
)

// Distributor fans election events out to all subscribed consumers.
// Consumers can be added at any time; events are delivered synchronously in
// subscription order.
type Distributor struct {
	consumers []election.Consumer
	lock      sync.RWMutex
}

var _ election.Consumer = (*Distributor)(nil)

func NewDistributor() *Distributor {
	return &Distributor{}
}

// AddConsumer subscribes a consumer to all subsequent events.
func (d *Distributor) AddConsumer(consumer election.Consumer) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.consumers = append(d.consumers, consumer)
}

func (d *Distributor) OnPhaseTransition(round uint64, height uint64, from model.Phase, to model.Phase) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.consumers {
		consumer.OnPhaseTransition(round, height, from, to)
	}
}

func (d *Distributor) OnSnapshotTaken(round uint64, height uint64, voters int, targets int) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.consumers {
		consumer.OnSnapshotTaken(round, height, voters, targets)
	}
}

func (d *Distributor) OnSolutionAccepted(round uint64, height uint64, solutionID model.Identifier, score model.Score) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.consumers {
		consumer.OnSolutionAccepted(round, height, solutionID, score)
	}
}

func (d *Distributor) OnSolutionRejected(round uint64, height uint64, solutionID model.Identifier, err error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.consumers {
		consumer.OnSolutionRejected(round, height, solutionID, err)
	}
}

func (d *Distributor) OnFallbackInvoked(round uint64, height uint64) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.consumers {
		consumer.OnFallbackInvoked(round, height)
	}
}
