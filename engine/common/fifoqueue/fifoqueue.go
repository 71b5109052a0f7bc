// Package fifoqueue implements a bounded FIFO queue for buffering work
// between the ingress side of an engine and its worker routine.
package fifoqueue

import (
	"fmt"
	"sync"

	"github.com/ef-ds/deque"
)

// FifoQueue is a bounded FIFO queue. Pushes past the capacity are refused,
// which callers surface as back-pressure.
type FifoQueue struct {
	mu          sync.Mutex
	queue       deque.Deque
	maxCapacity int
}

func NewFifoQueue(maxCapacity int) (*FifoQueue, error) {
	if maxCapacity < 1 {
		return nil, fmt.Errorf("capacity for FifoQueue must be positive")
	}
	return &FifoQueue{
		maxCapacity: maxCapacity,
	}, nil
}

// Push appends the element to the queue, refusing it if the queue is full.
func (q *FifoQueue) Push(element interface{}) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queue.Len() >= q.maxCapacity {
		return false
	}
	q.queue.PushBack(element)
	return true
}

// Pop removes and returns the queue's head element, if any.
func (q *FifoQueue) Pop() (interface{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queue.PopFront()
}

// Len returns the number of buffered elements.
func (q *FifoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queue.Len()
}
