package election

// PendingSubmission is a signed submission waiting in the validation queue.
// The deposit is already held; validation during the SignedValidation phase
// either promotes the submission into the solution queue or releases the
// deposit.
type PendingSubmission struct {
	Submitter Identifier
	Deposit   uint64
	Raw       *RawSolution
}
