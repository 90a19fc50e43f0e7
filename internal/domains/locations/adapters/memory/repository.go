package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/swiftcourier/courier-api/internal/domains/locations/domain"
	"github.com/swiftcourier/courier-api/internal/domains/locations/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory location persistence adapter.
type Repository struct {
	mu        sync.RWMutex
	locations map[int64]*domain.Location
	nextID    int64
}

func NewRepository() *Repository {
	return &Repository{locations: map[int64]*domain.Location{}}
}

func (r *Repository) Save(_ context.Context, location *domain.Location) (*domain.Location, error) {
	if location == nil {
		return nil, errors.New("location is nil")
	}
	clone := *location
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
		clone.CreatedAt = time.Now()
		clone.UpdatedAt = clone.CreatedAt
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	r.locations[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	location, ok := r.locations[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *location
	return &clone, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.locations, id)
	return nil
}

func (r *Repository) List(_ context.Context, query ports.Query) ([]*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Location, 0, len(r.locations))
	for _, location := range r.locations {
		if query.Type != "" && location.Type != query.Type {
			continue
		}
		if query.Text != "" && !matchesText(location, query.Text) {
			continue
		}
		clone := *location
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if query.Limit > 0 && len(list) > query.Limit {
		list = list[:query.Limit]
	}
	return list, nil
}

func matchesText(location *domain.Location, text string) bool {
	text = strings.ToLower(text)
	for _, field := range []string{location.Name, location.Address, location.City, location.State} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}
