package ports

import (
	"context"
	"time"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is returned at login. Refresh is empty when only a new access
// token was issued.
type TokenPair struct {
	Access          string
	Refresh         string
	AccessExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, caller domain.Identity, refreshToken string) error
	Me(ctx context.Context, caller domain.Identity) (*domain.User, error)
}

// TokenVerifier resolves a bearer access token to the caller identity.
type TokenVerifier interface {
	VerifyAccess(token string) (domain.Identity, error)
}
