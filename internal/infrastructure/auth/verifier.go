// Package auth verifies identity tokens issued by the auth provider.
package auth

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/bookcourier/book-courier-api/internal/config"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier checks RS256-signed identity tokens against the
// provider's public key and extracts the caller's email. It returns an
// explicit (Identity, error) result; callers decide how to surface a
// failed verification.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
}

func NewJWTVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse auth public key: %w", err)
	}

	return &JWTVerifier{publicKey: key}, nil
}

type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	claims := &identityClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	if err != nil {
		return domain.Identity{}, fmt.Errorf("token verification failed: %w", err)
	}
	if !parsed.Valid {
		return domain.Identity{}, fmt.Errorf("token is not valid")
	}
	if claims.Email == "" {
		return domain.Identity{}, fmt.Errorf("token carries no email claim")
	}

	return domain.Identity{Email: claims.Email}, nil
}
