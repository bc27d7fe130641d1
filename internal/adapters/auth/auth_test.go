package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	t.Run("round trip", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret-pass")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret-pass", hash)
		require.NoError(t, hasher.Compare(hash, "s3cret-pass"))
	})

	t.Run("wrong password", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret-pass")
		require.NoError(t, err)
		require.Error(t, hasher.Compare(hash, "wrong"))
	})
}

func TestJWTCodec(t *testing.T) {
	issuer, verifier := NewJWTCodec("test-secret")

	t.Run("round trip", func(t *testing.T) {
		token, err := issuer.Issue("emp-1", true, time.Hour)
		require.NoError(t, err)

		claims, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "emp-1", claims.EmployeeID)
		assert.True(t, claims.IsAdmin)
		assert.NotEmpty(t, claims.JTI)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
	})

	t.Run("unique jti per token", func(t *testing.T) {
		first, err := issuer.Issue("emp-1", false, time.Hour)
		require.NoError(t, err)
		second, err := issuer.Issue("emp-1", false, time.Hour)
		require.NoError(t, err)

		firstClaims, err := verifier.Verify(first)
		require.NoError(t, err)
		secondClaims, err := verifier.Verify(second)
		require.NoError(t, err)
		assert.NotEqual(t, firstClaims.JTI, secondClaims.JTI)
	})

	t.Run("wrong secret", func(t *testing.T) {
		otherIssuer, _ := NewJWTCodec("other-secret")
		token, err := otherIssuer.Issue("emp-1", false, time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := issuer.Issue("emp-1", false, -time.Minute)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "emp-1"})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := verifier.Verify("not-a-token")
		require.Error(t, err)
	})
}
