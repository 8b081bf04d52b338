package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerify_Roundtrip(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)

	digest, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	require.NotEqual(t, "correct horse battery staple", digest)

	assert.True(t, h.Verify("correct horse battery staple", digest))
	assert.False(t, h.Verify("correct horse battery stapl", digest))
	assert.False(t, h.Verify("", digest))
}

func TestVerify_MalformedDigest(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	assert.False(t, h.Verify("password", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify("password", ""))
}

func TestNew_ClampsInvalidCost(t *testing.T) {
	t.Parallel()

	h := New(1000)
	digest, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Verify("pw", digest))
}
