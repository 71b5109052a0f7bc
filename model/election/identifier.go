package election

import (
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v4"
	"golang.org/x/crypto/sha3"
)

// Identifier represents a 32-byte unique identifier for a voter, target or
// solution. Identifiers are content-derived where possible, so that two
// independently built entities with the same content agree on their identity.
type Identifier [32]byte

// HexStringToIdentifier converts a hex string to an identifier. The hex string
// must be 64 characters long, otherwise an error is returned.
func HexStringToIdentifier(hexString string) (Identifier, error) {
	var id Identifier
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return id, fmt.Errorf("could not decode hex string: %w", err)
	}
	if len(bz) != len(id) {
		return id, fmt.Errorf("malformed input, expected 32 bytes (64 characters), input length: %d", len(bz))
	}
	copy(id[:], bz)
	return id, nil
}

func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	var err error
	*id, err = HexStringToIdentifier(string(text))
	return err
}

// MakeID creates an identifier by hashing the canonical msgpack encoding of
// the given entity with SHA3-256. The encoding must be deterministic for the
// identifier to be stable, which holds for all entity types in this package.
func MakeID(entity interface{}) Identifier {
	data, err := msgpack.Marshal(entity)
	if err != nil {
		// encoding a well-formed in-memory entity never fails
		panic(fmt.Sprintf("could not encode entity for hashing: %v", err))
	}
	return HashToID(data)
}

// HashToID returns the identifier corresponding to the SHA3-256 digest of the
// given data.
func HashToID(data []byte) Identifier {
	return Identifier(sha3.Sum256(data))
}
