package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// AuthService implements registration, login and token refresh.
type AuthService struct {
	repo   ports.AuthRepository
	tokens *TokenIssuer
	store  ports.TokenStore
	log    zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, tokens *TokenIssuer, store ports.TokenStore, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, store: store, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var problems []string
	if username == "" {
		problems = append(problems, "username is required")
	}
	if email == "" {
		problems = append(problems, "email is required")
	}
	if in.Password == "" {
		problems = append(problems, "password is required")
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login verifies the password and returns an access/refresh pair. Unknown
// usernames and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.TokenPair, *domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	access, exp, err := s.tokens.issueAccess(user)
	if err != nil {
		return nil, nil, err
	}
	refresh, _, err := s.tokens.issueRefresh(user)
	if err != nil {
		return nil, nil, err
	}

	return &ports.TokenPair{Access: access, Refresh: refresh, AccessExpiresAt: exp}, user, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	claims, err := s.tokens.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh: revocation check: %w", err)
	}
	if revoked {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	access, exp, err := s.tokens.issueAccess(user)
	if err != nil {
		return nil, err
	}
	return &ports.TokenPair{Access: access, AccessExpiresAt: exp}, nil
}

// Logout revokes the caller's refresh token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, caller domain.Identity, refreshToken string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthorized
	}
	claims, err := s.tokens.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return err
	}
	if claims.Subject != caller.UserID {
		s.log.Warn().Err(errTokenOwner).Str("user_id", caller.UserID).Msg("logout rejected")
		return domain.ErrInvalidToken
	}

	if err := s.store.Revoke(ctx, claims.ID, s.tokens.remaining(claims)); err != nil {
		return fmt.Errorf("logout: revoke: %w", err)
	}
	s.log.Info().Str("user_id", caller.UserID).Msg("refresh token revoked")
	return nil
}

func (s *AuthService) Me(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.FindByID(ctx, caller.UserID)
}
