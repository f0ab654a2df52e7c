package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIdentifierDeterministic(t *testing.T) {
	a := HashIdentifier("salt", "cam-entrance")
	b := HashIdentifier("salt", "cam-entrance")
	assert.Equal(t, a, b)
}

func TestHashIdentifierFormat(t *testing.T) {
	h := HashIdentifier("salt", "cam-entrance")
	require.Len(t, h, 64)
	_, err := hex.DecodeString(h)
	require.NoError(t, err)

	// Digest covers "salt:value" exactly
	want := sha256.Sum256([]byte("salt:cam-entrance"))
	assert.Equal(t, hex.EncodeToString(want[:]), h)
}

func TestHashIdentifierSensitivity(t *testing.T) {
	base := HashIdentifier("salt", "cam-entrance")
	assert.NotEqual(t, base, HashIdentifier("salt", "cam-lobby"))
	assert.NotEqual(t, base, HashIdentifier("other-salt", "cam-entrance"))
}

func TestHashIdentifierNeverEchoesInput(t *testing.T) {
	h := HashIdentifier("salt", "cam-entrance")
	assert.NotContains(t, h, "cam-entrance")
}
