// Package multiphase implements the phased election provider: the state
// machine orchestrating snapshot capture, submission intake, budgeted
// validation, round close and the fallback safety net.
//
// The provider is strictly single-threaded in effect: all mutating calls are
// serialized by block processing order (the submission engine guarantees
// this for network traffic). The internal mutex only protects concurrent
// read access to the phase and round counters.
package multiphase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/onflow/multiphase/config/electconf"
	"github.com/onflow/multiphase/election"
	"github.com/onflow/multiphase/election/phases"
	model "github.com/onflow/multiphase/model/election"
	"github.com/onflow/multiphase/module"
	"github.com/onflow/multiphase/module/irrecoverable"
	"github.com/onflow/multiphase/storage"
)

// rejectedCacheSize bounds the per-provider cache of recently rejected
// solution identifiers, used to fail duplicate unsigned submissions fast.
const rejectedCacheSize = 1024

// Provider is the multi-phase election provider.
type Provider struct {
	mu sync.Mutex

	log       zerolog.Logger
	conf      electconf.Config
	schedule  *phases.Schedule
	metrics   module.ElectionMetrics
	consumer  election.Consumer
	store     storage.Elections
	snapshots election.Snapshotter
	checker   election.Checker
	queue     election.Queue
	fallback  election.Fallback
	deposits  election.Deposits

	height    uint64
	round     uint64
	phase     model.Phase
	snapshot  *model.Snapshot
	pending   []*model.PendingSubmission
	marks     map[model.Identifier]struct{}
	result    *model.Solution
	emergency bool

	// rejected caches the rejection reason of recently seen solutions, so
	// duplicate unsigned submissions are discarded without re-verification
	rejected *lru.Cache
}

var _ election.Provider = (*Provider)(nil)

// NewProvider creates the provider and restores any persisted round state,
// so that a process restart resumes the round with exact semantics.
func NewProvider(
	log zerolog.Logger,
	conf electconf.Config,
	metrics module.ElectionMetrics,
	consumer election.Consumer,
	store storage.Elections,
	snapshots election.Snapshotter,
	checker election.Checker,
	queue election.Queue,
	fallback election.Fallback,
	deposits election.Deposits,
) (*Provider, error) {

	schedule, err := phases.NewSchedule(conf)
	if err != nil {
		return nil, fmt.Errorf("could not build phase schedule: %w", err)
	}
	rejected, err := lru.New(rejectedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create rejection cache: %w", err)
	}

	p := &Provider{
		log:       log.With().Str("component", "election_provider").Logger(),
		conf:      conf,
		schedule:  schedule,
		metrics:   metrics,
		consumer:  consumer,
		store:     store,
		snapshots: snapshots,
		checker:   checker,
		queue:     queue,
		fallback:  fallback,
		deposits:  deposits,
		marks:     make(map[model.Identifier]struct{}),
		rejected:  rejected,
	}

	err = p.restore()
	if err != nil {
		return nil, fmt.Errorf("could not restore election state: %w", err)
	}

	return p, nil
}

// restore loads the persisted round state, if any.
func (p *Provider) restore() error {

	// the round counter is only persisted on rollover, so a missing counter
	// means the provider never left round 0
	round, err := p.store.CurrentRound()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not read current round: %w", err)
	}
	p.round = round
	p.phase = model.PhaseOff

	phase, err := p.store.Phase(round)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not read phase: %w", err)
	}
	if err == nil {
		p.phase = phase
		p.emergency = phase == model.PhaseEmergency
	}

	snapshot, err := p.store.Snapshot(round)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not read snapshot: %w", err)
	}
	if err == nil {
		p.snapshot = snapshot
	}

	queued, err := p.store.Queued(round)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not read queued solution: %w", err)
	}
	if err == nil {
		p.queue.Restore(queued)
	}

	pending, err := p.store.Pending(round)
	if err != nil {
		return fmt.Errorf("could not read pending submissions: %w", err)
	}
	p.pending = pending

	marks, err := p.store.UnsignedMarks(round)
	if err != nil {
		return fmt.Errorf("could not read unsigned marks: %w", err)
	}
	for _, mark := range marks {
		p.marks[mark] = struct{}{}
	}

	result, err := p.store.Result(round)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not read round result: %w", err)
	}
	if err == nil {
		p.result = result
	}

	p.log.Info().
		Uint64("round", p.round).
		Str("phase", p.phase.String()).
		Int("pending", len(p.pending)).
		Msg("election state restored")

	return nil
}

// Phase returns the currently active phase.
func (p *Provider) Phase() model.Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Round returns the current round counter.
func (p *Provider) Round() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.round
}

// OnFinalizedHeight advances the state machine to the given height. All
// phase-boundary work happens here: snapshot capture on entering the signed
// phase, budgeted validation during the validation phase, and round close at
// the election boundary. Re-processing an already-seen height is a no-op.
// No errors are expected during normal operation.
func (p *Provider) OnFinalizedHeight(height uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if height <= p.height {
		return nil
	}
	p.height = height

	// a round stuck in Emergency halts the machine until an administrative
	// injection resolves it; this is the designed liveness fault surface
	if p.emergency {
		return nil
	}

	err := p.advanceRound(height)
	if err != nil {
		return fmt.Errorf("could not advance round: %w", err)
	}
	if p.emergency {
		return nil
	}

	// the election boundary closes the round directly; the intermediate
	// schedule phases no longer matter at this height
	if p.schedule.IsElectionBoundary(height) && p.schedule.RoundAt(height) == p.round && p.result == nil {
		err = p.closeRound(height)
		if err != nil {
			return fmt.Errorf("could not close round %d: %w", p.round, err)
		}
		return nil
	}

	derived := p.derivedPhase(height)
	if derived != p.phase {
		err = p.enterPhase(height, derived)
		if err != nil {
			return fmt.Errorf("could not enter phase %s: %w", derived, err)
		}
	}
	if p.emergency {
		return nil
	}

	if p.phase == model.PhaseSignedValidation {
		err = p.validateBudgeted(height)
		if err != nil {
			return fmt.Errorf("could not validate pending submissions: %w", err)
		}
	}

	return nil
}

// derivedPhase layers the recorded terminal states over the pure
// schedule-derived phase.
func (p *Provider) derivedPhase(height uint64) model.Phase {
	if p.emergency {
		return model.PhaseEmergency
	}
	if p.result != nil {
		return model.PhaseDone
	}
	return p.schedule.PhaseAt(height)
}

// advanceRound rolls the provider over to the round the height belongs to,
// closing the previous round first if its boundary was skipped.
func (p *Provider) advanceRound(height uint64) error {

	target := p.schedule.RoundAt(height)
	for p.round < target {

		// close the previous round at its boundary if nothing did yet
		if p.result == nil {
			err := p.closeRound(p.schedule.ElectionHeight(p.round))
			if err != nil {
				return err
			}
			if p.emergency {
				return nil
			}
		}

		p.round++
		p.snapshot = nil
		p.pending = nil
		p.result = nil
		p.marks = make(map[model.Identifier]struct{})
		p.rejected.Purge()

		err := p.store.SaveCurrentRound(p.round)
		if err != nil {
			return fmt.Errorf("could not persist round counter: %w", err)
		}
		err = p.transition(height, model.PhaseOff)
		if err != nil {
			return err
		}
		p.metrics.CurrentRound(p.round)
		p.log.Info().Uint64("round", p.round).Msg("round started")
	}
	return nil
}

// enterPhase performs the side effects of a phase transition and records it.
func (p *Provider) enterPhase(height uint64, next model.Phase) error {

	// the snapshot is captured on first entry into any in-round phase, not
	// just Signed: a height burst can land past the signed start, and the
	// skipped capture must still be replayed for the round to resolve
	switch next {
	case model.PhaseSigned, model.PhaseSignedValidation, model.PhaseUnsigned:
		if p.snapshot == nil {
			err := p.captureSnapshot(height)
			if err != nil {
				return err
			}
			// a failed capture already transitioned the round to Emergency
			if p.emergency {
				return nil
			}
		}
	}

	return p.transition(height, next)
}

// transition records a phase change and emits the corresponding events.
func (p *Provider) transition(height uint64, next model.Phase) error {
	from := p.phase
	p.phase = next
	err := p.store.SavePhase(p.round, next)
	if err != nil {
		return fmt.Errorf("could not persist phase: %w", err)
	}
	p.metrics.CurrentPhase(next)
	p.consumer.OnPhaseTransition(p.round, height, from, next)
	return nil
}

// captureSnapshot freezes the voter/target universe for the round. A failed
// capture (empty universe, exceeded bounds under the reject policy, too few
// backed targets) is not locally recoverable: the round goes straight to
// Emergency.
func (p *Provider) captureSnapshot(height uint64) error {

	// the previous round is logically destroyed once the new snapshot exists
	if p.round > 0 {
		err := p.store.PruneRound(p.round - 1)
		if err != nil {
			return fmt.Errorf("could not prune previous round: %w", err)
		}
	}

	snapshot, err := p.snapshots.Capture(p.round)
	if err != nil {
		if errors.Is(err, model.ErrEmptySnapshot) || model.IsBoundsExceededError(err) {
			p.log.Error().Err(err).Uint64("round", p.round).Msg("snapshot capture failed, entering emergency")
			return p.enterEmergency(height)
		}
		return fmt.Errorf("could not capture snapshot: %w", err)
	}

	err = p.store.SaveSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("could not persist snapshot: %w", err)
	}

	p.snapshot = snapshot
	p.metrics.SnapshotSize(len(snapshot.Voters), len(snapshot.Targets))
	p.consumer.OnSnapshotTaken(p.round, height, len(snapshot.Voters), len(snapshot.Targets))

	return nil
}

// validateBudgeted feasibility-checks up to the per-block budget of pending
// signed submissions, in arrival order.
func (p *Provider) validateBudgeted(height uint64) error {

	budget := p.conf.ValidationBudget
	for budget > 0 && len(p.pending) > 0 {
		budget--
		submission := p.pending[0]
		p.pending = p.pending[1:]

		err := p.processSigned(height, submission)
		if err != nil {
			return err
		}
	}

	err := p.store.SavePending(p.round, p.pending)
	if err != nil {
		return fmt.Errorf("could not persist pending submissions: %w", err)
	}
	return nil
}

// processSigned validates one pending signed submission and settles its
// deposit: feasible improvements enter the queue (which releases the
// displaced deposit), everything else is refunded.
func (p *Provider) processSigned(height uint64, submission *model.PendingSubmission) error {

	solution, err := p.verify(submission.Raw)
	if err != nil {
		refundErr := p.deposits.Release(submission.Submitter, submission.Deposit)
		if refundErr != nil {
			return fmt.Errorf("could not refund rejected signed submission: %w", refundErr)
		}
		p.reject(height, submission.Raw.ID(), err)
		return nil
	}

	solution.Submitter = &submission.Submitter
	solution.Deposit = submission.Deposit

	return p.offer(height, solution, "signed")
}

// verify runs the feasibility check, tracking its duration and caching
// rejections for fast duplicate discard.
func (p *Provider) verify(raw *model.RawSolution) (*model.Solution, error) {

	solutionID := raw.ID()
	if cached, ok := p.rejected.Get(solutionID); ok {
		return nil, cached.(error)
	}

	if p.snapshot == nil {
		return nil, model.WrongRoundError{Submitted: raw.Round, Current: p.round}
	}

	start := time.Now()
	solution, err := p.checker.Check(p.snapshot, raw)
	p.metrics.VerificationDuration(time.Since(start))
	if err != nil {
		p.rejected.Add(solutionID, err)
		return nil, err
	}
	return solution, nil
}

// offer hands a verified solution to the queue and emits the outcome.
func (p *Provider) offer(height uint64, solution *model.Solution, channel string) error {

	accepted, err := p.queue.Offer(solution)
	if err != nil {
		return fmt.Errorf("could not offer solution to queue: %w", err)
	}
	if !accepted {
		p.reject(height, solution.ID(), model.ErrNotImproving)
		return nil
	}

	err = p.store.SaveQueued(p.round, solution)
	if err != nil {
		return fmt.Errorf("could not persist queued solution: %w", err)
	}

	p.metrics.SolutionAccepted(channel)
	p.consumer.OnSolutionAccepted(p.round, height, solution.ID(), solution.Score)
	return nil
}

// reject emits the rejection of one submission with its specific reason.
func (p *Provider) reject(height uint64, solutionID model.Identifier, err error) {
	p.metrics.SolutionRejected(rejectionReason(err))
	p.consumer.OnSolutionRejected(p.round, height, solutionID, err)
}

// SubmitSigned routes a deposit-bearing submission into the pending
// validation queue; see election.Provider.
func (p *Provider) SubmitSigned(submitter model.Identifier, raw *model.RawSolution, deposit uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase != model.PhaseSigned {
		return model.InvalidPhaseError{Operation: "submit_signed", Current: p.phase}
	}
	if raw.Round != p.round {
		err := model.WrongRoundError{Submitted: raw.Round, Current: p.round}
		p.reject(p.height, raw.ID(), err)
		return err
	}
	if uint32(len(p.pending)) >= p.conf.MaxPendingSigned {
		err := model.BoundsExceededError{
			Resource: "pending_signed",
			Limit:    p.conf.MaxPendingSigned,
			Actual:   uint32(len(p.pending)) + 1,
		}
		p.reject(p.height, raw.ID(), err)
		return err
	}

	// a failed hold is an internal fault, not one of the documented
	// rejections; strip its type so callers cannot mistake it for one
	err := p.deposits.Hold(submitter, deposit)
	if err != nil {
		return irrecoverable.NewExceptionf("could not hold submission deposit: %w", err)
	}

	p.pending = append(p.pending, &model.PendingSubmission{
		Submitter: submitter,
		Deposit:   deposit,
		Raw:       raw,
	})
	err = p.store.SavePending(p.round, p.pending)
	if err != nil {
		return fmt.Errorf("could not persist pending submissions: %w", err)
	}

	p.log.Debug().
		Uint64("round", p.round).
		Hex("submitter", submitter[:]).
		Int("pending", len(p.pending)).
		Msg("signed submission queued for validation")

	return nil
}

// SubmitUnsigned validates a deposit-free submission immediately; see
// election.Provider.
func (p *Provider) SubmitUnsigned(submitter model.Identifier, raw *model.RawSolution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase != model.PhaseUnsigned {
		return model.InvalidPhaseError{Operation: "submit_unsigned", Current: p.phase}
	}
	if raw.Round != p.round {
		err := model.WrongRoundError{Submitted: raw.Round, Current: p.round}
		p.reject(p.height, raw.ID(), err)
		return err
	}
	if _, ok := p.marks[submitter]; ok {
		p.reject(p.height, raw.ID(), model.ErrSubmitterLimit)
		return model.ErrSubmitterLimit
	}

	// discard submissions that do not even claim to improve on the queue
	if best := p.queue.Best(); best != nil && !raw.ClaimedScore.StrictlyBetter(best.Score) {
		p.reject(p.height, raw.ID(), model.ErrNotImproving)
		return model.ErrNotImproving
	}

	solution, err := p.verify(raw)
	if err != nil {
		p.reject(p.height, raw.ID(), err)
		return err
	}
	solution.Submitter = &submitter

	wasAccepted := p.queue.Best() == nil || solution.Score.StrictlyBetter(p.queue.Best().Score)
	err = p.offer(p.height, solution, "unsigned")
	if err != nil {
		return err
	}
	if !wasAccepted {
		return model.ErrNotImproving
	}

	// one accepted improvement per submitter per round
	p.marks[submitter] = struct{}{}
	marks := make([]model.Identifier, 0, len(p.marks))
	for mark := range p.marks {
		marks = append(marks, mark)
	}
	err = p.store.SaveUnsignedMarks(p.round, marks)
	if err != nil {
		return fmt.Errorf("could not persist unsigned marks: %w", err)
	}

	return nil
}

// closeRound resolves the round at its election boundary: the queued best
// solution wins; otherwise the fallback election runs; if that fails too,
// the round enters Emergency.
func (p *Provider) closeRound(height uint64) error {

	// any signed submission still unvalidated is refunded and dropped; a
	// failed refund must not block the remaining refunds
	var refundErrs *multierror.Error
	for _, submission := range p.pending {
		err := p.deposits.Release(submission.Submitter, submission.Deposit)
		if err != nil {
			refundErrs = multierror.Append(refundErrs, err)
			continue
		}
		p.reject(height, submission.Raw.ID(), model.ErrValidationExpired)
	}
	if err := refundErrs.ErrorOrNil(); err != nil {
		return fmt.Errorf("could not refund expired submissions: %w", err)
	}
	p.pending = nil
	err := p.store.SavePending(p.round, nil)
	if err != nil {
		return fmt.Errorf("could not persist pending submissions: %w", err)
	}

	best, err := p.queue.TakeBest()
	if err != nil {
		return fmt.Errorf("could not take best solution: %w", err)
	}
	if best != nil {
		err = p.store.RemoveQueued(p.round)
		if err != nil {
			return fmt.Errorf("could not clear queued solution: %w", err)
		}
		return p.finishRound(height, best)
	}

	// a height burst can skip the whole submission window; replay the
	// skipped capture so a healthy universe still resolves through the
	// fallback instead of halting
	if p.snapshot == nil {
		err = p.captureSnapshot(height)
		if err != nil {
			return err
		}
		if p.emergency {
			return nil
		}
	}

	p.metrics.FallbackInvoked()
	p.consumer.OnFallbackInvoked(p.round, height)

	computed, err := p.fallback.Compute(p.snapshot)
	if err != nil {
		if errors.Is(err, model.ErrEmptySnapshot) || errors.Is(err, model.ErrInsufficientBacking) {
			return p.enterEmergency(height)
		}
		return fmt.Errorf("could not compute fallback result: %w", err)
	}

	return p.finishRound(height, computed)
}

// finishRound records the round result and transitions to Done.
func (p *Provider) finishRound(height uint64, result *model.Solution) error {
	err := p.store.SaveResult(p.round, result)
	if err != nil {
		return fmt.Errorf("could not persist round result: %w", err)
	}
	p.result = result
	return p.transition(height, model.PhaseDone)
}

// enterEmergency records the liveness fault. The state machine halts until
// an administrative injection resolves the round.
func (p *Provider) enterEmergency(height uint64) error {
	p.emergency = true
	p.metrics.EmergencyEntered()
	return p.transition(height, model.PhaseEmergency)
}

// Elect returns the round result; see election.Provider.
func (p *Provider) Elect() (*model.Solution, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.emergency {
		return nil, model.ErrNoFallbackResult
	}
	if p.result == nil {
		return nil, model.InvalidPhaseError{Operation: "elect", Current: p.phase}
	}
	return p.result, nil
}

// Inject installs an administrative solution for a round stuck in
// Emergency; see election.Provider.
func (p *Provider) Inject(solution *model.Solution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.emergency {
		return model.InvalidPhaseError{Operation: "inject", Current: p.phase}
	}

	p.emergency = false
	err := p.finishRound(p.height, solution)
	if err != nil {
		return fmt.Errorf("could not finish round with injected solution: %w", err)
	}

	p.log.Warn().
		Uint64("round", p.round).
		Str("score", solution.Score.String()).
		Msg("administrative solution injected")

	return nil
}

// rejectionReason maps a rejection error to its metrics label.
func rejectionReason(err error) string {
	switch {
	case model.IsInvalidIndexError(err):
		return "invalid_index"
	case model.IsWeightMismatchError(err):
		return "weight_mismatch"
	case model.IsWrongWinnerCountError(err):
		return "wrong_winner_count"
	case model.IsWrongRoundError(err):
		return "wrong_round"
	case model.IsBoundsExceededError(err):
		return "bounds_exceeded"
	case errors.Is(err, model.ErrNotImproving):
		return "not_improving"
	case errors.Is(err, model.ErrSubmitterLimit):
		return "submitter_limit"
	case errors.Is(err, model.ErrValidationExpired):
		return "validation_expired"
	default:
		return "other"
	}
}
