package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.Generate("user-1", "admin@example.com", "admin")
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "admin@example.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
	require.NotEmpty(t, claims.JTI)
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	// mint a token whose expiry is already in the past; the constructor
	// itself never issues one (ttl <= 0 falls back to the 7-day default)
	past := time.Now().UTC().Add(-time.Minute)

	claims := Claims{
		UserID: "user-1",
		Email:  "admin@example.com",
		Role:   "admin",
		JTI:    "jti-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
			Subject:   "user-1",
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	raw, err := issuer.Generate("user-1", "admin@example.com", "admin")
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDefaultTTL(t *testing.T) {
	m := NewManager("test-secret", 0)
	require.Equal(t, 7*24*time.Hour, m.TTL())
}
