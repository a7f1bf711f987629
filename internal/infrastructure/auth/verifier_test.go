package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/config"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemBytes)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWTVerifier(t *testing.T) {
	key, publicPEM := newKeyPair(t)

	verifier, err := auth.NewJWTVerifier(config.AuthConfig{PublicKeyPEM: publicPEM})
	require.NoError(t, err)

	t.Run("accepts a valid token and extracts the email", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"email": "reader@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		identity, err := verifier.Verify(context.Background(), token)

		require.NoError(t, err)
		assert.Equal(t, "reader@example.com", identity.Email)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"email": "reader@example.com",
			"exp":   time.Now().Add(-time.Hour).Unix(),
		})

		_, err := verifier.Verify(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("rejects a token signed by another key", func(t *testing.T) {
		otherKey, _ := newKeyPair(t)
		token := signToken(t, otherKey, jwt.MapClaims{
			"email": "reader@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		_, err := verifier.Verify(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("rejects a token without an email claim", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := verifier.Verify(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "not-a-token")
		assert.Error(t, err)
	})
}
