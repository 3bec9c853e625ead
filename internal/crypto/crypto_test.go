package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	a, err := New(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	ct1, err := a.EncryptToString("A123456789")
	require.NoError(t, err)
	ct2, err := a.EncryptToString("A123456789")
	require.NoError(t, err)
	assert.NotEqual(t, ct1, ct2, "fresh nonce per seal")
	assert.NotContains(t, ct1, "A123456789")

	pt, err := a.DecryptString(ct1)
	require.NoError(t, err)
	assert.Equal(t, "A123456789", pt)
}

func TestOpenRejectsTamperingAndWrongKey(t *testing.T) {
	a, err := New(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	b, err := New(bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)

	ct, err := a.EncryptToString("secret")
	require.NoError(t, err)

	_, err = b.DecryptString(ct)
	assert.Error(t, err)

	_, err = a.DecryptString("c2hvcnQ")
	assert.Error(t, err)

	_, err = a.DecryptString("!!not base64")
	assert.Error(t, err)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)
}
