package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("conserve-block-body"), 1000)
	compressed := Compress(data)
	assert.Less(t, len(compressed), len(data))

	got, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecompressRejectsGarbage(t *testing.T) {
	_, err := Decompress([]byte{0xff, 0xff, 0xff, 0xff})
	assert.Error(t, err)
}
