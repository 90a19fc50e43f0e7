package ports

import (
	"context"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
)

// CreatePackageInput carries the fields accepted when registering a shipment.
type CreatePackageInput struct {
	TrackingNumber      string
	ServiceType         domain.ServiceType
	CostCents           int64
	CurrentLocation     string
	SenderLocationID    int64
	RecipientLocationID int64
	HandlingFlags       []string
	CreatedBy           string
}

// UpdatePackageInput carries optional fields for a partial update.
type UpdatePackageInput struct {
	ServiceType     *domain.ServiceType
	CostCents       *int64
	CurrentLocation *string
	HandlingFlags   *[]string
}

// Stats is the snapshot pushed to admin stream clients on connect.
type Stats struct {
	TotalPackages   int64
	TotalActivities int64
	ByStatus        map[domain.Status]int64
}

// Service is the status/activity engine: it owns every package mutation,
// maintains the history trail, and notifies subscribers after each change.
type Service interface {
	CreatePackage(ctx context.Context, input CreatePackageInput) (*domain.Package, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error)
	List(ctx context.Context, query PackageQuery) ([]*domain.Package, error)
	UpdatePackage(ctx context.Context, trackingNumber string, input UpdatePackageInput) (*domain.Package, error)
	UpdateStatus(ctx context.Context, trackingNumber string, status domain.Status, reason, actor string) (*domain.Package, error)
	AddActivity(ctx context.Context, trackingNumber, description, location, actor string) (*domain.Activity, error)
	Activities(ctx context.Context, trackingNumber string) ([]*domain.Activity, error)
	Delete(ctx context.Context, trackingNumber string) error
	Stats(ctx context.Context) (*Stats, error)
}

// Publisher decouples the engine from the event bus implementation.
type Publisher interface {
	Publish(topic string, event domain.Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(topic string, event domain.Event)

func (f PublisherFunc) Publish(topic string, event domain.Event) { f(topic, event) }

// NoopPublisher is a safe default when callers do not need notifications.
var NoopPublisher Publisher = PublisherFunc(func(string, domain.Event) {})
