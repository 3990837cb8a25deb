// Package hash computes the BLAKE2b-256 content hash used to address blocks
// in the blockdir.
package hash

import (
	"encoding/hex"
	stdhash "hash"

	"golang.org/x/crypto/blake2b"
)

// Size is the length in bytes of a BlockHash.
const Size = blake2b.Size256

// BlockHash is a hex-encoded 256-bit BLAKE2b hash of a block's uncompressed
// content. It is the primary key of a block in the blockdir.
type BlockHash string

// Sum computes the BlockHash of data using a fixed zero key (effectively
// unkeyed BLAKE2b-256), matching the archive's on-disk addressing scheme.
func Sum(data []byte) BlockHash {
	sum := blake2b.Sum256(data)
	return BlockHash(hex.EncodeToString(sum[:]))
}

// New returns a fresh hash.Hash computing BLAKE2b-256 with the archive's
// fixed zero key, suitable for streaming large inputs.
func New() (stdhash.Hash, error) {
	return blake2b.New256(nil)
}

// Valid reports whether s is a syntactically valid BlockHash: lowercase hex
// of exactly Size*2 characters.
func Valid(s string) bool {
	if len(s) != Size*2 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

// Dir returns the two-hex-char fan-out bucket for hash h.
func (h BlockHash) Dir() string {
	if len(h) < 2 {
		return string(h)
	}
	return string(h)[:2]
}

// String implements fmt.Stringer.
func (h BlockHash) String() string {
	return string(h)
}
