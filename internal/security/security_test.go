package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := NewPasswordHasher(fastParams)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.Contains(t, string(hash), "$argon2id$v=19$t=1,m=8192,p=1$")

	ok, err := h.Verify("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasherRejectsMalformed(t *testing.T) {
	h := NewPasswordHasher(fastParams)
	_, err := h.Verify("x", []byte("$bcrypt$whatever"))
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)

	token, issued, err := issuer.Issue("u1", "s1", "SUPER_ADMIN", "a@b.co")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "SUPER_ADMIN", claims.Role)
	assert.Equal(t, issued.ID, claims.ID)

	_, err = NewTokenIssuer("other", time.Minute).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerExpiry(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	token, _, err := issuer.Issue("u1", "s1", "DINER", "a@b.co")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateOpaqueToken(t *testing.T) {
	a, hashA, err := GenerateOpaqueToken(0)
	require.NoError(t, err)
	b, _, err := GenerateOpaqueToken(0)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, HashToken(a), hashA)
	assert.Len(t, hashA, 32)
}
