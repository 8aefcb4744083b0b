package secrets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(`{"version":1,"secrets":{"access_token":"tok"}}`)

	sealed, err := Encrypt(plaintext, "correct horse battery staple")
	require.NoError(t, err)
	assert.Greater(t, len(sealed), saltSize+nonceSize)
	assert.NotContains(t, string(sealed), "access_token")

	opened, err := Decrypt(sealed, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestEncryptProducesFreshSaltAndNonce(t *testing.T) {
	plaintext := []byte("same payload")

	first, err := Encrypt(plaintext, "pw")
	require.NoError(t, err)
	second, err := Encrypt(plaintext, "pw")
	require.NoError(t, err)

	assert.False(t, bytes.Equal(first, second))
	assert.False(t, bytes.Equal(first[:saltSize], second[:saltSize]))
}

func TestDecryptWrongPassphrase(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), "right")
	require.NoError(t, err)

	_, err = Decrypt(sealed, "wrong")
	assert.Error(t, err)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), "pw")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0x01
	_, err = Decrypt(sealed, "pw")
	assert.Error(t, err)
}

func TestDecryptTruncatedFile(t *testing.T) {
	_, err := Decrypt(make([]byte, saltSize+nonceSize-1), "pw")
	assert.ErrorIs(t, err, errCiphertextTooShort)
}

func TestPassphraseNormalization(t *testing.T) {
	// U+00E9 and U+0065 U+0301 both render as "é"; NFKC makes them derive
	// the same key.
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	sealed, err := Encrypt([]byte("secret"), composed)
	require.NoError(t, err)

	opened, err := Decrypt(sealed, decomposed)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), opened)
}
