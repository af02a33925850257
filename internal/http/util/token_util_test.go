package util

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier_IssueVerify(t *testing.T) {
	v := NewTokenVerifier([]byte("secret"))

	token, err := v.Issue("user-1", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := NewTokenVerifier([]byte("secret"))

	expired, err := v.Issue("user-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	foreign, err := NewTokenVerifier([]byte("other")).Issue("user-1", "", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(foreign)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = v.Verify("not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(none)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenVerifier_SubjectFallback(t *testing.T) {
	secret := []byte("secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(secret)
	require.NoError(t, err)

	claims, err := NewTokenVerifier(secret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.UserID)
}

func TestTokenVerifier_MissingSecret(t *testing.T) {
	_, err := NewTokenVerifier(nil).Verify("anything")
	assert.True(t, errors.Is(err, ErrMissingSecret))
}
