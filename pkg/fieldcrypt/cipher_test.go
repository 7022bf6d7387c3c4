package fieldcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := New("correct horse battery staple")
	require.NoError(t, err)

	enc, err := c.Encrypt("JOHN DOE")
	require.NoError(t, err)
	assert.NotContains(t, enc, "JOHN")

	again, err := c.Encrypt("JOHN DOE")
	require.NoError(t, err)
	assert.NotEqual(t, enc, again, "nonce must differ per call")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "JOHN DOE", plain)
}

func TestCipherWrongKey(t *testing.T) {
	a, err := New("key-a")
	require.NoError(t, err)
	b, err := New("key-b")
	require.NoError(t, err)

	enc, err := a.Encrypt("group-1")
	require.NoError(t, err)
	_, err = b.Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestCipherMalformed(t *testing.T) {
	c, err := New("key")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64 !!")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = c.Decrypt("YWJj")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	require.NoError(t, err)
	k2, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
	_, err = New(k1)
	assert.NoError(t, err)
}
