package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

type stubAuthRepo struct {
	users map[string]*domain.User
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.users[user.Username] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubTokenStore struct {
	revoked  map[string]time.Duration
	checkErr error
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{revoked: make(map[string]time.Duration)}
}

func (s *stubTokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.revoked[jti] = ttl
	return nil
}

func (s *stubTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	if s.checkErr != nil {
		return false, s.checkErr
	}
	_, ok := s.revoked[jti]
	return ok, nil
}

func newAuthSvc() (*AuthService, *stubAuthRepo, *stubTokenStore) {
	repo := newStubAuthRepo()
	store := newStubTokenStore()
	issuer := NewTokenIssuer("secret", time.Minute, time.Hour)
	return NewAuthService(repo, issuer, store, zerolog.Nop()), repo, store
}

func register(t *testing.T, svc *AuthService, username, password string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _, _ := newAuthSvc()

	user := register(t, svc, "alice", "pass1234")
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.PasswordHash == "pass1234" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass1234")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected email: %s", user.Email)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newAuthSvc()

	_, err := svc.Register(context.Background(), ports.RegisterInput{Username: "", Email: "", Password: ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newAuthSvc()

	register(t, svc, "bob", "pass1234")
	_, err := svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Email: "b2@example.com", Password: "x"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _ := newAuthSvc()
	created := register(t, svc, "carol", "s3cret!!")

	pair, user, err := svc.Login(context.Background(), "carol", "s3cret!!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if user.ID != created.ID {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(pair.Access, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != created.ID || claims.Type != tokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _, _ := newAuthSvc()
	register(t, svc, "dave", "goodpass")

	if _, _, err := svc.Login(context.Background(), "dave", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUserLooksLikeBadPassword(t *testing.T) {
	svc, _, _ := newAuthSvc()

	if _, _, err := svc.Login(context.Background(), "ghost", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _, _ := newAuthSvc()
	created := register(t, svc, "erin", "pass1234")
	pair, _, err := svc.Login(context.Background(), "erin", "pass1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Refresh != "" {
		t.Errorf("refresh must only issue an access token")
	}
	id, err := svc.tokens.VerifyAccess(refreshed.Access)
	if err != nil || id.UserID != created.ID {
		t.Fatalf("refreshed access token invalid: %v %+v", err, id)
	}

	if _, err := svc.Refresh(context.Background(), pair.Access); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("access token must not be accepted for refresh, got %v", err)
	}
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	svc, _, store := newAuthSvc()
	created := register(t, svc, "frank", "pass1234")
	pair, _, _ := svc.Login(context.Background(), "frank", "pass1234")
	caller := domain.Identity{UserID: created.ID, Username: "frank"}

	if err := svc.Logout(context.Background(), caller, pair.Refresh); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(store.revoked) != 1 {
		t.Fatalf("expected one revoked token, got %d", len(store.revoked))
	}
	for _, ttl := range store.revoked {
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("unexpected revocation ttl %v", ttl)
		}
	}

	if _, err := svc.Refresh(context.Background(), pair.Refresh); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestAuthService_Logout_OtherUsersToken(t *testing.T) {
	svc, _, store := newAuthSvc()
	register(t, svc, "gina", "pass1234")
	pair, _, _ := svc.Login(context.Background(), "gina", "pass1234")

	err := svc.Logout(context.Background(), domain.Identity{UserID: "someone-else"}, pair.Refresh)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if len(store.revoked) != 0 {
		t.Fatalf("token must not be revoked")
	}
}

func TestAuthService_Refresh_StoreFailureFailsClosed(t *testing.T) {
	svc, _, store := newAuthSvc()
	register(t, svc, "hank", "pass1234")
	pair, _, _ := svc.Login(context.Background(), "hank", "pass1234")
	store.checkErr = errors.New("redis down")

	if _, err := svc.Refresh(context.Background(), pair.Refresh); err == nil {
		t.Fatal("expected error when revocation store is unavailable")
	}
}

func TestTokenIssuer_ExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute, time.Hour)
	token, _, err := issuer.issueAccess(&domain.User{ID: "u1", Username: "u"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, err := issuer.VerifyAccess(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, _, _ := NewTokenIssuer("one", time.Minute, time.Hour).issueAccess(&domain.User{ID: "u1"})
	if _, err := NewTokenIssuer("two", time.Minute, time.Hour).VerifyAccess(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}
}

func TestAuthService_Login_TrimsUsernameLikeRegister(t *testing.T) {
	svc, _, _ := newAuthSvc()
	register(t, svc, "ivy ", "pass1234")

	for _, name := range []string{"ivy ", " ivy", "ivy"} {
		if _, _, err := svc.Login(context.Background(), name, "pass1234"); err != nil {
			t.Errorf("login as %q: %v", name, err)
		}
	}
}
