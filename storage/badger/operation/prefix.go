package operation

const (

	// current round counter (singleton key)
	codeCurrentRound = 10

	// per-round election state, keyed by round counter
	codeSnapshot      = 20
	codeQueued        = 21
	codePending       = 22
	codePhase         = 23
	codeResult        = 24
	codeUnsignedMarks = 25
)
