package election

// Phase represents the position of a round within the multi-phase election
// cycle. Exactly one phase is active at any block height. All phases except
// Done and Emergency are derived purely from the block height and the round
// schedule; Done and Emergency are recorded when the round closes.
type Phase int

const (
	// PhaseOff is the idle phase: no snapshot exists and no submissions are
	// accepted.
	PhaseOff Phase = iota
	// PhaseSigned accepts deposit-bearing submissions, which are queued for
	// deferred validation.
	PhaseSigned
	// PhaseSignedValidation validates queued signed submissions under a
	// per-block budget, in arrival order.
	PhaseSignedValidation
	// PhaseUnsigned accepts deposit-free submissions, validated immediately,
	// rate-limited to one accepted improvement per submitter per round.
	PhaseUnsigned
	// PhaseDone indicates the round closed with an accepted or fallback
	// result.
	PhaseDone
	// PhaseEmergency indicates the round closed without any result. Only an
	// administrative injection can produce a result for the round.
	PhaseEmergency
)

func (p Phase) String() string {
	switch p {
	case PhaseOff:
		return "Off"
	case PhaseSigned:
		return "Signed"
	case PhaseSignedValidation:
		return "SignedValidation"
	case PhaseUnsigned:
		return "Unsigned"
	case PhaseDone:
		return "Done"
	case PhaseEmergency:
		return "Emergency"
	default:
		return "Unknown"
	}
}
