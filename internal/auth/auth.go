package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatgate/internal/errors"
	"chatgate/internal/models"
)

// Authenticator verifies bearer credentials presented during the websocket
// handshake (and on REST calls) and resolves the user identity. Failure never
// mutates the presence registry; the caller drops the connection instead.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewAuthenticator(cfg models.AuthConfig) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.TokenTTLSec) * time.Second,
	}
}

// IssueToken signs a bearer token for a user. Used by the login surface and
// by tests; the gateway itself only verifies.
func (a *Authenticator) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to sign token")
	}
	return signed, nil
}

// Authenticate verifies the bearer token and returns the user identity.
func (a *Authenticator) Authenticate(ctx context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New(errors.ErrCodeAuthentication, "missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New(errors.ErrCodeAuthentication, "unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(a.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeAuthentication, "invalid bearer token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New(errors.ErrCodeAuthentication, "invalid bearer token")
	}

	return claims.Subject, nil
}
