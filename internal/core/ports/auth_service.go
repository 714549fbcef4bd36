package ports

import (
	"context"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, in domain.Registration) (*domain.Client, error)
	Login(ctx context.Context, identifier, password string, role domain.Role) (string, domain.User, error)
}
