// Package codec wraps the Snappy compression used to store both block
// bodies and index hunks on disk.
package codec

import (
	"github.com/golang/snappy"
)

// Compress returns the Snappy-compressed form of data.
func Compress(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// Decompress returns the decompressed form of Snappy-compressed data.
func Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

// DecodedLen returns the length of the decompressed form of data without
// fully decompressing it, or an error if data is not validly framed.
func DecodedLen(data []byte) (int, error) {
	return snappy.DecodedLen(data)
}
