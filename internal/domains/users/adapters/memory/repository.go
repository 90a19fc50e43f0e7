package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/swiftcourier/courier-api/internal/domains/users/domain"
	"github.com/swiftcourier/courier-api/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory user persistence adapter keyed by username.
type Repository struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{users: map[string]*domain.User{}}
}

func (r *Repository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := *user
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	key := strings.ToLower(clone.Username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[key]; ok {
		clone.ID = existing.ID
	} else if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	r.users[key] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *Repository) Delete(_ context.Context, username string) error {
	key := strings.ToLower(strings.TrimSpace(username))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[key]; !ok {
		return ports.ErrNotFound
	}
	delete(r.users, key)
	return nil
}
