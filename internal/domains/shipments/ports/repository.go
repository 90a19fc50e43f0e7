package ports

import (
	"context"
	"errors"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
)

var (
	ErrNotFound          = errors.New("package not found")
	ErrDuplicateTracking = errors.New("tracking number already exists")
)

// PackageQuery narrows List results; zero values mean no filter.
type PackageQuery struct {
	Text   string
	Status domain.Status
	Limit  int
}

// Repository persists packages and their append-only activity history.
type Repository interface {
	Save(ctx context.Context, pkg *domain.Package) (*domain.Package, error)
	GetByID(ctx context.Context, id int64) (*domain.Package, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error)
	Delete(ctx context.Context, trackingNumber string) error
	List(ctx context.Context, query PackageQuery) ([]*domain.Package, error)

	AppendActivity(ctx context.Context, activity *domain.Activity) (*domain.Activity, error)
	ActivitiesByTrackingNumber(ctx context.Context, trackingNumber string) ([]*domain.Activity, error)
	CountActivities(ctx context.Context) (int64, error)
}
