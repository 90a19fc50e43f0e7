package ports

import (
	"context"
	"errors"

	"github.com/swiftcourier/courier-api/internal/domains/users/domain"
)

var ErrNotFound = errors.New("user not found")

// Repository persists user accounts.
type Repository interface {
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Delete(ctx context.Context, username string) error
}
