package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swiftcourier/courier-api/internal/domains/locations/domain"
	"github.com/swiftcourier/courier-api/internal/domains/locations/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid location input")
	// ErrNotFound signals an unknown location id.
	ErrNotFound = errors.New("location not found")
)

// CreateInput carries the fields accepted when registering a location.
type CreateInput struct {
	Name       string
	Type       domain.Type
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// UpdateInput carries optional fields for a partial update.
type UpdateInput struct {
	Name       *string
	Type       *domain.Type
	Address    *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
}

// Service orchestrates location CRUD use cases.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Location, error) {
	loc, err := domain.NewLocation(input.Name, input.Type)
	if err != nil {
		return nil, mapError(err)
	}
	loc.Address = strings.TrimSpace(input.Address)
	loc.City = strings.TrimSpace(input.City)
	loc.State = strings.TrimSpace(input.State)
	loc.PostalCode = strings.TrimSpace(input.PostalCode)
	loc.Country = strings.TrimSpace(input.Country)
	saved, err := s.repo.Save(ctx, loc)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Location, error) {
	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return loc, nil
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*domain.Location, error) {
	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if input.Name != nil {
		loc.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		loc.Type = *input.Type
	}
	if input.Address != nil {
		loc.Address = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		loc.City = strings.TrimSpace(*input.City)
	}
	if input.State != nil {
		loc.State = strings.TrimSpace(*input.State)
	}
	if input.PostalCode != nil {
		loc.PostalCode = strings.TrimSpace(*input.PostalCode)
	}
	if input.Country != nil {
		loc.Country = strings.TrimSpace(*input.Country)
	}
	if err := loc.Validate(); err != nil {
		return nil, mapError(err)
	}
	loc.UpdatedAt = s.now()
	saved, err := s.repo.Save(ctx, loc)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return mapError(s.repo.Delete(ctx, id))
}

func (s *Service) List(ctx context.Context, query ports.Query) ([]*domain.Location, error) {
	result, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, domain.ErrEmptyName) || errors.Is(err, domain.ErrInvalidType) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
