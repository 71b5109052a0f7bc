package election

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawSolutionCodecRoundTrip(t *testing.T) {
	raw := &RawSolution{
		Round: 7,
		Assignments: []Assignment{
			{Voter: 0, Edges: []Edge{{Target: 0, Weight: 10}, {Target: 1, Weight: 5}}},
			{Voter: 3, Edges: []Edge{{Target: 1, Weight: 20}}},
		},
		ClaimedScore: Score{
			MinimalSupport: SupportFromUint64(15),
			SumSupport:     SupportFromUint64(35),
			SumSquared:     SupportFromUint64(625),
		},
	}

	data, err := EncodeRawSolution(raw)
	require.NoError(t, err)

	decoded, err := DecodeRawSolution(data)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

// The canonical encoding must be deterministic: the same value encodes to
// the same bytes, so content-derived identifiers are stable.
func TestRawSolutionCodecDeterministic(t *testing.T) {
	raw := &RawSolution{
		Round: 3,
		Assignments: []Assignment{
			{Voter: 1, Edges: []Edge{{Target: 2, Weight: 100}}},
		},
	}

	first, err := EncodeRawSolution(raw)
	require.NoError(t, err)
	second, err := EncodeRawSolution(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeRawSolutionMalformed(t *testing.T) {
	_, err := DecodeRawSolution([]byte("not cbor at all"))
	assert.Error(t, err)
}

// The solution identifier covers round and assignments only: the same
// assignment submitted by two parties has the same identity, and the claimed
// score does not perturb it.
func TestSolutionIdentity(t *testing.T) {
	assignments := []Assignment{
		{Voter: 0, Edges: []Edge{{Target: 0, Weight: 10}}},
	}

	a := &RawSolution{Round: 1, Assignments: assignments, ClaimedScore: Score{MinimalSupport: SupportFromUint64(1)}}
	b := &RawSolution{Round: 1, Assignments: assignments, ClaimedScore: Score{MinimalSupport: SupportFromUint64(2)}}
	assert.Equal(t, a.ID(), b.ID())

	submitter := Identifier{0x01}
	checked := &Solution{Round: 1, Assignments: assignments, Submitter: &submitter, Deposit: 50}
	bare := &Solution{Round: 1, Assignments: assignments}
	assert.Equal(t, checked.ID(), bare.ID())
	assert.Equal(t, a.ID(), checked.ID(), "raw and checked identity must agree")

	other := &Solution{Round: 2, Assignments: assignments}
	assert.NotEqual(t, checked.ID(), other.ID())
}
