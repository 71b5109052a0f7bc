// Package submission implements the ingress engine for externally computed
// solutions. Submissions and finalized-height events arrive concurrently
// from the network side; the engine buffers them and feeds the strictly
// single-threaded election provider from one worker routine, preserving
// arrival order.
package submission

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/onflow/multiphase/election"
	"github.com/onflow/multiphase/engine"
	"github.com/onflow/multiphase/engine/common/fifoqueue"
	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/module/component"
	"github.com/onflow/multiphase/module/irrecoverable"
)

// defaultQueueCapacity bounds the number of buffered submissions. The
// provider's own per-round caps are much tighter; this only absorbs bursts.
const defaultQueueCapacity = 256

type signedMessage struct {
	submitter model.Identifier
	payload   []byte
	deposit   uint64
}

type unsignedMessage struct {
	submitter model.Identifier
	payload   []byte
}

// Engine routes submissions and block finalization into the provider.
type Engine struct {
	*component.ComponentManager

	log             zerolog.Logger
	provider        election.Provider
	messages        *fifoqueue.FifoQueue
	messageNotifier engine.Notifier
	heightNotifier  engine.Notifier
	newestHeight    *atomic.Uint64
	processedHeight *atomic.Uint64
	droppedCount    *atomic.Uint64
}

func New(log zerolog.Logger, provider election.Provider) (*Engine, error) {

	messages, err := fifoqueue.NewFifoQueue(defaultQueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("could not create submission queue: %w", err)
	}

	e := &Engine{
		log:             log.With().Str("engine", "submission").Logger(),
		provider:        provider,
		messages:        messages,
		messageNotifier: engine.NewNotifier(),
		heightNotifier:  engine.NewNotifier(),
		newestHeight:    atomic.NewUint64(0),
		processedHeight: atomic.NewUint64(0),
		droppedCount:    atomic.NewUint64(0),
	}

	e.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(e.processLoop).
		Build()

	return e, nil
}

// OnFinalizedBlock notifies the engine that the given height was finalized.
// It is safe to call from any goroutine; skipped heights are tolerated, the
// worker always advances the provider to the newest height seen.
func (e *Engine) OnFinalizedBlock(height uint64) {
	for {
		current := e.newestHeight.Load()
		if height <= current {
			return
		}
		if e.newestHeight.CompareAndSwap(current, height) {
			e.heightNotifier.Notify()
			return
		}
	}
}

// SubmitSigned buffers a signed submission for processing. The payload is
// the canonical CBOR encoding of a raw solution; it is decoded on the worker
// routine. Returns an error if the buffer is full.
func (e *Engine) SubmitSigned(submitter model.Identifier, payload []byte, deposit uint64) error {
	ok := e.messages.Push(&signedMessage{submitter: submitter, payload: payload, deposit: deposit})
	if !ok {
		e.droppedCount.Inc()
		return fmt.Errorf("submission queue full, dropping signed submission")
	}
	e.messageNotifier.Notify()
	return nil
}

// SubmitUnsigned buffers an unsigned submission for processing, with the
// same contract as SubmitSigned.
func (e *Engine) SubmitUnsigned(submitter model.Identifier, payload []byte) error {
	ok := e.messages.Push(&unsignedMessage{submitter: submitter, payload: payload})
	if !ok {
		e.droppedCount.Inc()
		return fmt.Errorf("submission queue full, dropping unsigned submission")
	}
	e.messageNotifier.Notify()
	return nil
}

// processLoop is the single worker routine. Height events take priority over
// submissions so that the provider's phase is always current before a
// submission is judged against it.
func (e *Engine) processLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.heightNotifier.Channel():
			e.processHeight(ctx)
		case <-e.messageNotifier.Channel():
			e.processHeight(ctx)
			e.processMessages(ctx)
		}
	}
}

func (e *Engine) processHeight(ctx irrecoverable.SignalerContext) {
	height := e.newestHeight.Load()
	if height <= e.processedHeight.Load() {
		return
	}
	err := e.provider.OnFinalizedHeight(height)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not process finalized height %d: %w", height, err))
	}
	e.processedHeight.Store(height)
}

func (e *Engine) processMessages(ctx irrecoverable.SignalerContext) {
	for {
		msg, ok := e.messages.Pop()
		if !ok {
			return
		}
		switch m := msg.(type) {
		case *signedMessage:
			e.processSigned(ctx, m)
		case *unsignedMessage:
			e.processUnsigned(ctx, m)
		default:
			ctx.Throw(fmt.Errorf("invalid message type in submission queue: %T", msg))
		}
	}
}

func (e *Engine) processSigned(ctx irrecoverable.SignalerContext, msg *signedMessage) {
	raw, err := model.DecodeRawSolution(msg.payload)
	if err != nil {
		e.log.Warn().Err(err).Hex("submitter", msg.submitter[:]).Msg("malformed signed submission")
		return
	}
	err = e.provider.SubmitSigned(msg.submitter, raw, msg.deposit)
	if err != nil {
		e.handleSubmissionError(ctx, msg.submitter, err)
	}
}

func (e *Engine) processUnsigned(ctx irrecoverable.SignalerContext, msg *unsignedMessage) {
	raw, err := model.DecodeRawSolution(msg.payload)
	if err != nil {
		e.log.Warn().Err(err).Hex("submitter", msg.submitter[:]).Msg("malformed unsigned submission")
		return
	}
	err = e.provider.SubmitUnsigned(msg.submitter, raw)
	if err != nil {
		e.handleSubmissionError(ctx, msg.submitter, err)
	}
}

// handleSubmissionError distinguishes expected per-submission rejections,
// which are logged and dropped, from unexpected failures, which are fatal.
func (e *Engine) handleSubmissionError(ctx irrecoverable.SignalerContext, submitter model.Identifier, err error) {
	if model.IsFeasibilityError(err) ||
		model.IsInvalidPhaseError(err) ||
		model.IsBoundsExceededError(err) ||
		errors.Is(err, model.ErrNotImproving) ||
		errors.Is(err, model.ErrSubmitterLimit) {
		e.log.Debug().Err(err).Hex("submitter", submitter[:]).Msg("submission rejected")
		return
	}
	ctx.Throw(fmt.Errorf("could not process submission: %w", err))
}
