package election

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
)

// Support is the total stake weight assigned to one target, as an exact
// 256-bit unsigned integer in big-endian byte order. Per-edge weights are
// 64-bit, but supports aggregate many edges and the score squares them, so
// the score arithmetic needs the wider type. The fixed byte representation
// keeps the value directly comparable and trivially serializable.
type Support [32]byte

// SupportFromUint256 converts an exact 256-bit value into its big-endian
// representation.
func SupportFromUint256(v *uint256.Int) Support {
	return v.Bytes32()
}

// SupportFromUint64 lifts a 64-bit stake weight into a Support.
func SupportFromUint64(v uint64) Support {
	return SupportFromUint256(uint256.NewInt(v))
}

// Uint256 returns the support as a freshly allocated 256-bit integer.
func (s Support) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes(s[:])
}

// Cmp compares two supports numerically, returning -1, 0 or 1. Big-endian
// byte comparison coincides with numeric comparison.
func (s Support) Cmp(other Support) int {
	return bytes.Compare(s[:], other[:])
}

func (s Support) String() string {
	return s.Uint256().Dec()
}

// Score is the deterministic quality measure of a solution against a
// snapshot: the support of the least-backed winner, the total support across
// all winners, and the sum of squared supports. It is always recomputed from
// the snapshot; a submitter-claimed score is never trusted.
type Score struct {
	MinimalSupport Support
	SumSupport     Support
	SumSquared     Support
}

// Compare orders scores by quality: higher minimal support wins, then higher
// total support, then lower sum of squared supports (rewarding an even
// distribution of stake across winners). It returns a positive value if s is
// strictly better than other, zero if equal, negative otherwise.
func (s Score) Compare(other Score) int {
	if c := s.MinimalSupport.Cmp(other.MinimalSupport); c != 0 {
		return c
	}
	if c := s.SumSupport.Cmp(other.SumSupport); c != 0 {
		return c
	}
	return other.SumSquared.Cmp(s.SumSquared)
}

// StrictlyBetter reports whether s beats other. A queued solution is only
// ever displaced by a strictly better one, so equal scores keep the
// incumbent.
func (s Score) StrictlyBetter(other Score) bool {
	return s.Compare(other) > 0
}

func (s Score) String() string {
	return fmt.Sprintf("(%s, %s, %s)", s.MinimalSupport, s.SumSupport, s.SumSquared)
}
