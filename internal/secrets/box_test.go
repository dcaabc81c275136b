package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := NewBox("unit-test-key")
	require.NoError(t, err)

	sealed, err := box.Seal("merchant@example.com")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "merchant", "sealed value must not leak plaintext")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "merchant@example.com", plain)
}

func TestSealProducesDistinctCiphertexts(t *testing.T) {
	box, err := NewBox("unit-test-key")
	require.NoError(t, err)

	a, err := box.Seal("same")
	require.NoError(t, err)
	b, err := box.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce must randomize ciphertext")
}

func TestOpenRejectsTamperedValue(t *testing.T) {
	box, err := NewBox("unit-test-key")
	require.NoError(t, err)

	sealed, err := box.Seal("value")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-2] + "zz"
	_, err = box.Open(tampered)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = box.Open("not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	a, err := NewBox("key-a")
	require.NoError(t, err)
	b, err := NewBox("key-b")
	require.NoError(t, err)

	sealed, err := a.Seal("value")
	require.NoError(t, err)
	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewBoxRejectsEmptyKey(t *testing.T) {
	_, err := NewBox("")
	assert.Error(t, err)
}
