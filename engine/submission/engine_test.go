package submission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/module/irrecoverable"
	"github.com/onflow/multiphase/utils/unittest"
)

type signedCall struct {
	submitter model.Identifier
	raw       *model.RawSolution
	deposit   uint64
}

type unsignedCall struct {
	submitter model.Identifier
	raw       *model.RawSolution
}

// stubProvider records provider calls and returns the configured errors.
type stubProvider struct {
	mu        sync.Mutex
	heights   []uint64
	signed    []signedCall
	unsigned  []unsignedCall
	submitErr error
	heightErr error
	phase     model.Phase
	round     uint64
}

func (p *stubProvider) OnFinalizedHeight(height uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.heightErr != nil {
		return p.heightErr
	}
	p.heights = append(p.heights, height)
	return nil
}

func (p *stubProvider) SubmitSigned(submitter model.Identifier, raw *model.RawSolution, deposit uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return p.submitErr
	}
	p.signed = append(p.signed, signedCall{submitter: submitter, raw: raw, deposit: deposit})
	return nil
}

func (p *stubProvider) SubmitUnsigned(submitter model.Identifier, raw *model.RawSolution) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitErr != nil {
		return p.submitErr
	}
	p.unsigned = append(p.unsigned, unsignedCall{submitter: submitter, raw: raw})
	return nil
}

func (p *stubProvider) Elect() (*model.Solution, error) { return nil, nil }
func (p *stubProvider) Inject(*model.Solution) error    { return nil }
func (p *stubProvider) Phase() model.Phase              { return p.phase }
func (p *stubProvider) Round() uint64                   { return p.round }

func (p *stubProvider) signedCalls() []signedCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]signedCall(nil), p.signed...)
}

func (p *stubProvider) unsignedCalls() []unsignedCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]unsignedCall(nil), p.unsigned...)
}

func (p *stubProvider) seenHeights() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.heights...)
}

// runEngine starts the engine and returns it together with the irrecoverable
// error channel and a stop function that blocks until shutdown completes.
func runEngine(t *testing.T, provider *stubProvider) (*Engine, <-chan error, func()) {
	engine, err := New(unittest.Logger(), provider)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)
	engine.Start(signalerCtx)
	unittest.RequireCloseBefore(t, engine.Ready(), time.Second, "engine never became ready")

	stop := func() {
		cancel()
		unittest.RequireCloseBefore(t, engine.Done(), time.Second, "engine never shut down")
	}
	return engine, errChan, stop
}

func TestEngineProcessesHeights(t *testing.T) {
	provider := &stubProvider{}
	engine, _, stop := runEngine(t, provider)
	defer stop()

	engine.OnFinalizedBlock(5)
	require.Eventually(t, func() bool {
		heights := provider.seenHeights()
		return len(heights) == 1 && heights[0] == 5
	}, time.Second, 10*time.Millisecond)

	// a stale height is ignored entirely
	engine.OnFinalizedBlock(3)
	engine.OnFinalizedBlock(8)
	require.Eventually(t, func() bool {
		heights := provider.seenHeights()
		return len(heights) == 2 && heights[1] == 8
	}, time.Second, 10*time.Millisecond)
}

func TestEngineForwardsSubmissions(t *testing.T) {
	provider := &stubProvider{}
	engine, _, stop := runEngine(t, provider)
	defer stop()

	raw := &model.RawSolution{
		Round: 1,
		Assignments: []model.Assignment{
			{Voter: 0, Edges: []model.Edge{{Target: 0, Weight: 10}}},
		},
	}
	payload, err := model.EncodeRawSolution(raw)
	require.NoError(t, err)

	signedSubmitter := unittest.IdentifierFixture()
	require.NoError(t, engine.SubmitSigned(signedSubmitter, payload, 100))

	unsignedSubmitter := unittest.IdentifierFixture()
	require.NoError(t, engine.SubmitUnsigned(unsignedSubmitter, payload))

	require.Eventually(t, func() bool {
		return len(provider.signedCalls()) == 1 && len(provider.unsignedCalls()) == 1
	}, time.Second, 10*time.Millisecond)

	signed := provider.signedCalls()[0]
	assert.Equal(t, signedSubmitter, signed.submitter)
	assert.Equal(t, raw, signed.raw)
	assert.Equal(t, uint64(100), signed.deposit)

	unsigned := provider.unsignedCalls()[0]
	assert.Equal(t, unsignedSubmitter, unsigned.submitter)
	assert.Equal(t, raw, unsigned.raw)
}

// Malformed payloads are dropped on the worker routine without reaching the
// provider and without escalating.
func TestEngineDropsMalformedPayload(t *testing.T) {
	provider := &stubProvider{}
	engine, errChan, stop := runEngine(t, provider)
	defer stop()

	require.NoError(t, engine.SubmitSigned(unittest.IdentifierFixture(), []byte("garbage"), 100))
	require.NoError(t, engine.SubmitUnsigned(unittest.IdentifierFixture(), []byte("garbage")))

	// give the worker a chance to process the queue
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, provider.signedCalls())
	assert.Empty(t, provider.unsignedCalls())
	select {
	case err := <-errChan:
		t.Fatalf("unexpected irrecoverable error: %v", err)
	default:
	}
}

// Expected per-submission rejections are logged and dropped, not escalated.
func TestEngineToleratesRejections(t *testing.T) {
	provider := &stubProvider{submitErr: model.InvalidPhaseError{Operation: "submit_signed", Current: model.PhaseOff}}
	engine, errChan, stop := runEngine(t, provider)
	defer stop()

	raw := &model.RawSolution{Round: 1}
	payload, err := model.EncodeRawSolution(raw)
	require.NoError(t, err)
	require.NoError(t, engine.SubmitSigned(unittest.IdentifierFixture(), payload, 100))

	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-errChan:
		t.Fatalf("unexpected irrecoverable error: %v", err)
	default:
	}
}

// An unexpected provider failure while processing a height is irrecoverable.
func TestEngineEscalatesHeightFailure(t *testing.T) {
	provider := &stubProvider{heightErr: fmt.Errorf("storage corrupted")}
	engine, errChan, stop := runEngine(t, provider)
	defer stop()

	engine.OnFinalizedBlock(5)
	select {
	case err := <-errChan:
		assert.ErrorContains(t, err, "storage corrupted")
	case <-time.After(time.Second):
		t.Fatal("expected an irrecoverable error")
	}
}
