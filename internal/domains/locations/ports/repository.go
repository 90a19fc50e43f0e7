package ports

import (
	"context"
	"errors"

	"github.com/swiftcourier/courier-api/internal/domains/locations/domain"
)

var ErrNotFound = errors.New("location not found")

// Query narrows List results; zero values mean no filter.
type Query struct {
	Text  string
	Type  domain.Type
	Limit int
}

// Repository persists locations.
type Repository interface {
	Save(ctx context.Context, location *domain.Location) (*domain.Location, error)
	GetByID(ctx context.Context, id int64) (*domain.Location, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, query Query) ([]*domain.Location, error)
}
