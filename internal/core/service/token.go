package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Type     string `json:"typ"`
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) issueAccess(user *domain.User) (string, time.Time, error) {
	return t.issue(user, tokenTypeAccess, t.accessTTL)
}

func (t *TokenIssuer) issueRefresh(user *domain.User) (string, time.Time, error) {
	return t.issue(user, tokenTypeRefresh, t.refreshTTL)
}

func (t *TokenIssuer) issue(user *domain.User, typ string, ttl time.Duration) (string, time.Time, error) {
	now := t.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: user.Username,
		Type:     typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// parse verifies signature, expiry and token type.
func (t *TokenIssuer) parse(raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Type != wantType || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess resolves an access token to the caller identity. Refresh
// tokens are rejected.
func (t *TokenIssuer) VerifyAccess(raw string) (domain.Identity, error) {
	claims, err := t.parse(raw, tokenTypeAccess)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: claims.Subject, Username: claims.Username}, nil
}

// remaining returns how long the token stays valid, never negative.
func (t *TokenIssuer) remaining(c *Claims) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Time.Sub(t.now())
	if d < 0 {
		return 0
	}
	return d
}

var errTokenOwner = errors.New("token belongs to another user")
