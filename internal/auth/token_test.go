package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-rooms/internal/application"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", time.Hour, fixedNow(now))

	token, expires, err := issuer.Issue(application.Principal{UserID: 7, Username: "alice", IsAdmin: true})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, now.Add(time.Hour), expires)

	principal, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, application.Principal{UserID: 7, Username: "alice", IsAdmin: true}, principal)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(fixedNow(now)))
	require.NoError(t, err)
	claims := parsed.Claims.(*jwtClaims)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, issuerName, claims.Issuer)
}

func TestIssuer_RejectsBadTokens(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", time.Hour, fixedNow(now))
	token, _, err := issuer.Issue(application.Principal{UserID: 7, Username: "alice"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewIssuer("test-secret", time.Hour, fixedNow(now.Add(2*time.Hour)))
		_, err := later.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("other-secret", time.Hour, fixedNow(now))
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty and garbage", func(t *testing.T) {
		_, err := issuer.Verify("  ")
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, err = issuer.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		claims := jwtClaims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Verify(unsigned)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("missing user", func(t *testing.T) {
		_, _, err := issuer.Issue(application.Principal{})
		assert.Error(t, err)
	})
}
