package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "unit-test-signing-key"

func TestGenerateToken_RoundTrip(t *testing.T) {
	tok, err := GenerateToken(99, jwtTestSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := ParseToken(tok, jwtTestSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(99), claims.AccountID)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken(1, jwtTestSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, "some-other-key")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	tok, err := GenerateToken(1, jwtTestSecret, -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, jwtTestSecret)
	assert.Error(t, err)
}

func TestParseToken_WrongIssuer(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtTestSecret))
	require.NoError(t, err)

	_, err = ParseToken(tok, jwtTestSecret)
	assert.Error(t, err)
}

func TestParseToken_RejectsNone(t *testing.T) {
	claims := &Claims{
		AccountID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(tok, jwtTestSecret)
	assert.Error(t, err)
}

func TestParseToken_Malformed(t *testing.T) {
	_, err := ParseToken("not.a.jwt", jwtTestSecret)
	assert.Error(t, err)
}
