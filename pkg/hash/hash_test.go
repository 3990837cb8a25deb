package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumIsDeterministicAndCorrectLength(t *testing.T) {
	h1 := Sum([]byte("hello world"))
	h2 := Sum([]byte("hello world"))
	assert.Equal(t, h1, h2)
	assert.Len(t, string(h1), Size*2)
	assert.True(t, Valid(string(h1)))
}

func TestSumDiffersForDifferentContent(t *testing.T) {
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestStreamingMatchesSum(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	h, err := New()
	require.NoError(t, err)
	_, err = h.Write(data)
	require.NoError(t, err)
	sum := h.Sum(nil)

	want := Sum(data)
	assert.Equal(t, string(want), hexEncode(sum))
}

func TestValidRejectsMalformed(t *testing.T) {
	assert.False(t, Valid("not-hex"))
	assert.False(t, Valid("abcd"))
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}
