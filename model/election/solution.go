package election

// Edge assigns part of a voter's stake to one target. Target is an index
// into the snapshot's target list.
type Edge struct {
	Target uint32
	Weight uint64
}

// Assignment distributes one voter's stake across a set of targets. Voter is
// an index into the snapshot's voter list. The edge weights must sum to the
// voter's stake within the configured tolerance.
type Assignment struct {
	Voter uint32
	Edges []Edge
}

// RawSolution is an externally computed candidate result as it arrives on
// the submission interface: index-compressed against the round's snapshot
// and entirely untrusted. Every field is re-validated by the feasibility
// checker before the solution can enter the queue; the claimed score in
// particular is only ever used to cheaply discard submissions that do not
// even claim to improve on the queued solution.
type RawSolution struct {
	Round        uint64
	Assignments  []Assignment
	ClaimedScore Score
}

// ID returns the content-derived identifier of the raw solution. The
// identifier covers round and assignments only, so it is stable across the
// feasibility check and unaffected by the claimed score.
func (r *RawSolution) ID() Identifier {
	return MakeID(struct {
		Round       uint64
		Assignments []Assignment
	}{r.Round, r.Assignments})
}

// Solution is a feasibility-checked result for one round, carrying the score
// recomputed from the snapshot. Submitter is nil for fallback-computed and
// administratively injected solutions; Deposit is zero for everything except
// signed submissions.
type Solution struct {
	Round       uint64
	Assignments []Assignment
	Score       Score
	Submitter   *Identifier
	Deposit     uint64
}

// ID returns the content-derived identifier of the solution. The identifier
// covers the assignment only, so the same assignment submitted by two
// different parties has the same identity.
func (s *Solution) ID() Identifier {
	return MakeID(struct {
		Round       uint64
		Assignments []Assignment
	}{s.Round, s.Assignments})
}

// Winners returns the distinct targets with nonzero assigned weight, as
// indices into the snapshot's target list.
func (s *Solution) Winners() []uint32 {
	seen := make(map[uint32]struct{})
	var winners []uint32
	for _, assignment := range s.Assignments {
		for _, edge := range assignment.Edges {
			if edge.Weight == 0 {
				continue
			}
			if _, ok := seen[edge.Target]; ok {
				continue
			}
			seen[edge.Target] = struct{}{}
			winners = append(winners, edge.Target)
		}
	}
	return winners
}
