package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory shipment persistence adapter. Packages are
// keyed by tracking number; activities are an append-only log per package.
type Repository struct {
	mu         sync.RWMutex
	packages   map[string]*domain.Package // tracking number -> package
	activities map[string][]*domain.Activity
	nextID     int64
}

func NewRepository() *Repository {
	return &Repository{
		packages:   map[string]*domain.Package{},
		activities: map[string][]*domain.Activity{},
	}
}

func (r *Repository) Save(_ context.Context, pkg *domain.Package) (*domain.Package, error) {
	if pkg == nil {
		return nil, errors.New("package is nil")
	}
	clone := clonePackage(pkg)
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.packages[clone.TrackingNumber]
	if ok {
		if clone.ID == 0 {
			return nil, ports.ErrDuplicateTracking
		}
		clone.ID = existing.ID
		clone.CreatedAt = existing.CreatedAt
	} else {
		if clone.ID == 0 {
			r.nextID++
			clone.ID = r.nextID
		} else if clone.ID > r.nextID {
			r.nextID = clone.ID
		}
	}
	r.packages[clone.TrackingNumber] = clone
	return clonePackage(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pkg := range r.packages {
		if pkg.ID == id {
			return clonePackage(pkg), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) GetByTrackingNumber(_ context.Context, trackingNumber string) (*domain.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkg, ok := r.packages[trackingNumber]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clonePackage(pkg), nil
}

func (r *Repository) Delete(_ context.Context, trackingNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[trackingNumber]; !ok {
		return ports.ErrNotFound
	}
	delete(r.packages, trackingNumber)
	return nil
}

// List scans linearly; acceptable at demo scale.
func (r *Repository) List(_ context.Context, query ports.PackageQuery) ([]*domain.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Package, 0, len(r.packages))
	for _, pkg := range r.packages {
		if query.Status != "" && pkg.Status != query.Status {
			continue
		}
		if query.Text != "" && !matchesText(pkg, query.Text) {
			continue
		}
		list = append(list, clonePackage(pkg))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if query.Limit > 0 && len(list) > query.Limit {
		list = list[:query.Limit]
	}
	return list, nil
}

func (r *Repository) AppendActivity(_ context.Context, activity *domain.Activity) (*domain.Activity, error) {
	if activity == nil {
		return nil, errors.New("activity is nil")
	}
	clone := activity.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[clone.TrackingNumber] = append(r.activities[clone.TrackingNumber], clone)
	return clone.Clone(), nil
}

func (r *Repository) ActivitiesByTrackingNumber(_ context.Context, trackingNumber string) ([]*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.activities[trackingNumber]
	list := make([]*domain.Activity, 0, len(stored))
	for _, activity := range stored {
		list = append(list, activity.Clone())
	}
	return list, nil
}

func (r *Repository) CountActivities(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, list := range r.activities {
		total += int64(len(list))
	}
	return total, nil
}

func clonePackage(pkg *domain.Package) *domain.Package {
	clone := *pkg
	clone.HandlingFlags = append([]string(nil), pkg.HandlingFlags...)
	if pkg.DeliveredAt != nil {
		delivered := *pkg.DeliveredAt
		clone.DeliveredAt = &delivered
	}
	return &clone
}

func matchesText(pkg *domain.Package, text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(strings.ToLower(pkg.TrackingNumber), text) ||
		strings.Contains(strings.ToLower(pkg.CurrentLocation), text)
}
