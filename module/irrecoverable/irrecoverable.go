// Package irrecoverable provides the error escalation channel for faults a
// component cannot recover from locally, such as the election provider's
// liveness fault when a round closes in Emergency.
package irrecoverable

import (
	"context"
	"runtime"
)

// Signaler sends an irrecoverable error out to whoever supervises the
// component. Throw never returns.
type Signaler struct {
	errors chan error
	done   chan struct{}
}

func NewSignaler() (*Signaler, <-chan error) {
	sig := &Signaler{
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
	return sig, sig.errors
}

// Throw is a narrow drop-in replacement for panic or log.Fatal anywhere a
// component holds a signaler. Only the first error is delivered; subsequent
// throws terminate their goroutine without delivering.
func (s *Signaler) Throw(err error) {
	select {
	case s.errors <- err:
		close(s.done)
	case <-s.done:
	}
	runtime.Goexit()
}

// SignalerContext is a constrained drop-in replacement for context.Context
// that can additionally throw irrecoverable errors.
type SignalerContext interface {
	context.Context
	Throw(err error)
	sealed()
}

type signalerCtx struct {
	context.Context
	signaler *Signaler
}

func (sc signalerCtx) sealed() {}

func (sc signalerCtx) Throw(err error) {
	sc.signaler.Throw(err)
}

// WithSignaler is the One True Way of getting a SignalerContext.
func WithSignaler(parent context.Context) (SignalerContext, <-chan error) {
	sig, errs := NewSignaler()
	return signalerCtx{parent, sig}, errs
}
