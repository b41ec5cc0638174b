package security

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	authsvc "orbit/internal/app/services/auth"
)

var (
	ErrSecretRequired = errors.New("provider: signing secret is required")
	ErrTokenInvalid   = errors.New("provider: token invalid")
)

// JWTProviderVerifier validates identity-provider tokens (HS256) and maps
// the standard profile claims onto auth.ProviderClaims. The subject claim
// is the provider's opaque stable user ID.
type JWTProviderVerifier struct {
	Secret []byte
	Issuer string
}

func NewJWTProviderVerifier(secret, issuer string) (*JWTProviderVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	return &JWTProviderVerifier{Secret: []byte(secret), Issuer: strings.TrimSpace(issuer)}, nil
}

type providerTokenClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Picture  string `json:"image_url"`
	jwt.RegisteredClaims
}

func (v *JWTProviderVerifier) Verify(ctx context.Context, token string) (authsvc.ProviderClaims, error) {
	if strings.TrimSpace(token) == "" {
		return authsvc.ProviderClaims{}, ErrTokenInvalid
	}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	var claims providerTokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	}, options...)
	if err != nil {
		return authsvc.ProviderClaims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return authsvc.ProviderClaims{}, ErrTokenInvalid
	}
	return authsvc.ProviderClaims{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Username: claims.Username,
		Picture:  claims.Picture,
	}, nil
}

var _ authsvc.ProviderVerifier = (*JWTProviderVerifier)(nil)
