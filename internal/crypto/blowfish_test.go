package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlowfishCipher_RoundTrip(t *testing.T) {
	key := []byte("capture-replay-static-key-001!!")
	c, err := NewBlowfishCipher(key)
	require.NoError(t, err)

	plain := []byte("12345678abcdefgh")
	data := append([]byte(nil), plain...)

	require.NoError(t, c.Encrypt(data, 0, len(data)))
	require.NotEqual(t, plain, data)

	require.NoError(t, c.Decrypt(data, 0, len(data)))
	require.Equal(t, plain, data)
}

func TestBlowfishCipher_SizeNotMultipleOfBlock(t *testing.T) {
	c, err := NewBlowfishCipher([]byte("shortkey"))
	require.NoError(t, err)

	data := make([]byte, 10)
	require.Error(t, c.Decrypt(data, 0, 10))
	require.Error(t, c.Encrypt(data, 0, 10))
}

func TestBlowfishCipher_OffsetOutOfRange(t *testing.T) {
	c, err := NewBlowfishCipher([]byte("shortkey"))
	require.NoError(t, err)

	data := make([]byte, 8)
	require.Error(t, c.Decrypt(data, 4, 8))
}
