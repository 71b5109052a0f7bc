package election

// Voter is one stake-bearing participant in a round, frozen at snapshot
// capture. The preference list is ordered and bounded by the configured
// per-voter degree; a solution may only assign the voter's stake to targets
// appearing in it.
type Voter struct {
	VoterID     Identifier
	Stake       uint64
	Preferences []Identifier
}

// Target is one electable candidate in a round, frozen at snapshot capture.
// Meta carries opaque target-specific metadata supplied by the target source;
// the election core never interprets it.
type Target struct {
	TargetID Identifier
	Meta     []byte
}

// Snapshot freezes the voter/target universe for one round. It is immutable
// for the lifetime of the round: every component holding a reference treats
// it as read-only.
type Snapshot struct {
	Round          uint64
	DesiredWinners uint32
	Voters         []Voter
	Targets        []Target
}

// ID returns the content-derived identifier of the snapshot.
func (s *Snapshot) ID() Identifier {
	return MakeID(s)
}

// TargetLookup returns the index of each target keyed by its identifier.
func (s *Snapshot) TargetLookup() map[Identifier]uint32 {
	lookup := make(map[Identifier]uint32, len(s.Targets))
	for i, target := range s.Targets {
		lookup[target.TargetID] = uint32(i)
	}
	return lookup
}

// TotalStake returns the sum of all voter stakes. The sum is accumulated in
// two 64-bit halves to stay exact even if the per-voter stakes sum past the
// 64-bit boundary.
func (s *Snapshot) TotalStake() (hi uint64, lo uint64) {
	for _, voter := range s.Voters {
		prev := lo
		lo += voter.Stake
		if lo < prev {
			hi++
		}
	}
	return hi, lo
}
