package ports

import (
	"context"
	"errors"

	"github.com/swiftcourier/courier-api/internal/domains/products/domain"
)

var ErrNotFound = errors.New("product not found")

// Query narrows List results; zero values mean no filter.
type Query struct {
	Text     string
	Category string
	Limit    int
}

// Repository persists catalog products.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, query Query) ([]*domain.Product, error)
}
