package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSecretVerifier_Plain(t *testing.T) {
	v, err := NewSecretVerifier("flush2025", "")
	require.NoError(t, err)

	assert.True(t, v.Verify("flush2025"))
	assert.False(t, v.Verify("flush2024"))
	assert.False(t, v.Verify(""))
}

func TestSecretVerifier_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	// the hash takes precedence over the plain password
	v, err := NewSecretVerifier("ignored", string(hash))
	require.NoError(t, err)

	assert.True(t, v.Verify("s3cret"))
	assert.False(t, v.Verify("ignored"))
	assert.False(t, v.Verify(""))
}

func TestSecretVerifier_InvalidHash(t *testing.T) {
	_, err := NewSecretVerifier("", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

func TestSecretVerifier_Unconfigured(t *testing.T) {
	v, err := NewSecretVerifier("", "")
	require.NoError(t, err)

	assert.False(t, v.Verify(""))
	assert.False(t, v.Verify("anything"))
}
