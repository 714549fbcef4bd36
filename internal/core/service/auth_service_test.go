package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

type stubAccounts struct {
	users       map[string]domain.User
	passwords   map[string]string
	registerErr error
}

func newStubAccounts() *stubAccounts {
	return &stubAccounts{users: make(map[string]domain.User), passwords: make(map[string]string)}
}

func (s *stubAccounts) RegisterClient(_ context.Context, in domain.Registration) (*domain.Client, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	c := &domain.Client{ID: "c-" + in.Email, Name: in.Name, Email: in.Email}
	s.users[in.Email] = c
	s.passwords[in.Email] = in.Password
	return c, nil
}

func (s *stubAccounts) Authenticate(_ context.Context, identifier, password string, role domain.Role) (domain.User, error) {
	u, ok := s.users[identifier]
	if !ok || u.UserRole() != role || s.passwords[identifier] != password {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func TestAuthService_Register_PassesThrough(t *testing.T) {
	accounts := newStubAccounts()
	svc := NewAuthService(accounts, "secret", time.Hour)

	c, err := svc.Register(context.Background(), domain.Registration{Name: "Ivan", Email: "ivan@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if c == nil || c.Email != "ivan@example.com" {
		t.Fatalf("unexpected client: %+v", c)
	}

	accounts.registerErr = domain.ErrDuplicateEmail
	if _, err := svc.Register(context.Background(), domain.Registration{Email: "ivan@example.com"}); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	accounts := newStubAccounts()
	svc := NewAuthService(accounts, "secret", time.Hour)
	if _, err := svc.Register(context.Background(), domain.Registration{Name: "Carol", Email: "carol@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "carol@example.com", "s3cret", domain.RoleClient)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.DisplayName() != "Carol" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != string(domain.RoleClient) {
		t.Fatalf("expected role %s, got %v", domain.RoleClient, claims["role"])
	}
	if claims["sub"] != "c-carol@example.com" || claims["name"] != "Carol" {
		t.Fatalf("unexpected subject claims: %v", claims)
	}
	if claims["iss"] != tokenIssuer {
		t.Fatalf("expected issuer %s, got %v", tokenIssuer, claims["iss"])
	}
	if _, ok := claims["iat"]; !ok {
		t.Fatalf("issued-at claim missing")
	}
}

func TestAuthService_Login_ExecutorAgainstMarketplace(t *testing.T) {
	m := newTestMarketplace(t, Deps{})
	svc := NewAuthService(m, "secret", time.Hour)

	token, user, err := svc.Login(context.Background(), "Maxim", "140612", domain.RoleExecutor)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || user.UserID() != "maxim" {
		t.Fatalf("unexpected login result: %q %v", token, user)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	accounts := newStubAccounts()
	svc := NewAuthService(accounts, "secret", time.Hour)

	_, _ = svc.Register(context.Background(), domain.Registration{Name: "Dave", Email: "dave@example.com", Password: "goodpass"})
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass", domain.RoleClient); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc := NewAuthService(newStubAccounts(), "secret", time.Hour)

	if _, _, err := svc.Login(context.Background(), "", "pass", domain.RoleClient); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "x@example.com", "pass", "admin"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for bad role, got %v", err)
	}
}
