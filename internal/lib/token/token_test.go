package token

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	tok, err := Generate()
	require.NoError(t, err)
	assert.Len(t, tok, Size*2)

	raw, err := hex.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, Size)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		tok, err := Generate()
		require.NoError(t, err)
		_, dup := seen[tok]
		assert.False(t, dup, "generated token must be unique")
		seen[tok] = struct{}{}
	}
}

func TestDigest_Deterministic(t *testing.T) {
	assert.Equal(t, Digest("abc"), Digest("abc"))
	assert.NotEqual(t, Digest("abc"), Digest("abd"))
	assert.Len(t, Digest("abc"), 64)
}
