package aead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	plaintext := []byte("rho and gamma blinding envelope")
	blob, err := Seal(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, blob)

	got, err := Open(key, blob)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenWrongKeyFails(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	other, err := NewKey()
	require.NoError(t, err)

	blob, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	_, err = Open(other, blob)
	assert.Error(t, err)
}

func TestSealNondeterministic(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	a, err := Seal(key, []byte("same plaintext"))
	require.NoError(t, err)
	b, err := Seal(key, []byte("same plaintext"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpenTruncatedFails(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	_, err = Open(key, []byte("x"))
	assert.Error(t, err)
}
