package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const tokenIssuer = "order-marketplace"

// AuthService implements registration and login on top of the marketplace accounts.
type AuthService struct {
	accounts  ports.Accounts
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(accounts ports.Accounts, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{accounts: accounts, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

var _ ports.AuthService = (*AuthService)(nil)

// Register creates a client account. A persistence warning is passed through
// with the created client.
func (s *AuthService) Register(ctx context.Context, in domain.Registration) (*domain.Client, error) {
	return s.accounts.RegisterClient(ctx, in)
}

func (s *AuthService) Login(ctx context.Context, identifier, password string, role domain.Role) (string, domain.User, error) {
	if identifier == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	if role != domain.RoleClient && role != domain.RoleExecutor {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.accounts.Authenticate(ctx, identifier, password, role)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// tokenClaims is the JWT payload read back by the HTTP auth middleware.
type tokenClaims struct {
	Role domain.Role `json:"role"`
	Name string      `json:"name"`
	jwt.RegisteredClaims
}

func (s *AuthService) generateToken(user domain.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role: user.UserRole(),
		Name: user.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.UserID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}
