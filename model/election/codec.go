package election

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Submissions cross the network as opaque CBOR payloads. We pin a canonical
// encoding mode so that solution identifiers derived from re-encoded
// payloads are stable across independently built binaries.
var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error
	cborEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not construct cbor encoding mode: %v", err))
	}
	cborDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("could not construct cbor decoding mode: %v", err))
	}
}

// EncodeRawSolution serializes a raw solution into its canonical wire form.
func EncodeRawSolution(raw *RawSolution) ([]byte, error) {
	data, err := cborEncMode.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("could not encode raw solution: %w", err)
	}
	return data, nil
}

// DecodeRawSolution parses a raw solution from its wire form. The result is
// structurally well-formed but entirely unvalidated.
func DecodeRawSolution(data []byte) (*RawSolution, error) {
	var raw RawSolution
	err := cborDecMode.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("could not decode raw solution: %w", err)
	}
	return &raw, nil
}
