// Package component provides a compact manager for components composed of
// one or more worker goroutines, with ready/done signaling and irrecoverable
// error escalation.
package component

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/onflow/multiphase/module"
	"github.com/onflow/multiphase/module/irrecoverable"
)

// Component represents a component which can be started and stopped, and
// exposes channels that close when startup and shutdown have completed.
type Component interface {
	module.Startable
	module.ReadyDoneAware
}

// ReadyFunc is called within a ComponentWorker to indicate that the worker
// is ready. The ComponentManager's Ready channel closes when all workers
// have signaled readiness.
type ReadyFunc func()

// ComponentWorker is one worker routine of a component. It must call ready
// once initialized and return when the context is cancelled.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

// ComponentManager runs a set of workers as a single component.
type ComponentManager struct {
	started *atomic.Bool
	ready   chan struct{}
	done    chan struct{}
	workers []ComponentWorker
}

var _ Component = (*ComponentManager)(nil)

// NewComponentManagerBuilder returns a new builder with no workers.
func NewComponentManagerBuilder() *ComponentManagerBuilder {
	return &ComponentManagerBuilder{}
}

// ComponentManagerBuilder accumulates workers and builds the manager.
type ComponentManagerBuilder struct {
	workers []ComponentWorker
}

// AddWorker adds a worker routine to the component.
func (b *ComponentManagerBuilder) AddWorker(worker ComponentWorker) *ComponentManagerBuilder {
	b.workers = append(b.workers, worker)
	return b
}

// Build builds and returns a new ComponentManager instance.
func (b *ComponentManagerBuilder) Build() *ComponentManager {
	return &ComponentManager{
		started: atomic.NewBool(false),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		workers: b.workers,
	}
}

// Start launches all workers. Calling Start more than once panics.
func (m *ComponentManager) Start(ctx irrecoverable.SignalerContext) {
	if !m.started.CompareAndSwap(false, true) {
		panic("component may only be started once")
	}

	var workersReady sync.WaitGroup
	var workersDone sync.WaitGroup
	workersReady.Add(len(m.workers))
	workersDone.Add(len(m.workers))

	for _, worker := range m.workers {
		worker := worker
		var readyOnce sync.Once
		go func() {
			defer workersDone.Done()
			worker(ctx, func() {
				readyOnce.Do(workersReady.Done)
			})
		}()
	}

	go func() {
		workersReady.Wait()
		close(m.ready)
	}()
	go func() {
		workersDone.Wait()
		close(m.done)
	}()
}

// Ready returns a channel that closes when all workers signaled readiness.
func (m *ComponentManager) Ready() <-chan struct{} {
	return m.ready
}

// Done returns a channel that closes when all workers have returned.
func (m *ComponentManager) Done() <-chan struct{} {
	return m.done
}
