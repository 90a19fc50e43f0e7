package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swiftcourier/courier-api/internal/domains/products/domain"
	"github.com/swiftcourier/courier-api/internal/domains/products/ports"
)

var (
	ErrInvalidInput = errors.New("invalid product input")
	ErrNotFound     = errors.New("product not found")
)

// CreateInput carries the fields accepted when adding a catalog item.
type CreateInput struct {
	Name        string
	Description string
	SKU         string
	Category    string
	PriceCents  int64
}

// UpdateInput carries optional fields for a partial update.
type UpdateInput struct {
	Name        *string
	Description *string
	SKU         *string
	Category    *string
	PriceCents  *int64
}

// Service orchestrates product catalog use cases.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Product, error) {
	product, err := domain.NewProduct(input.Name, input.PriceCents)
	if err != nil {
		return nil, mapError(err)
	}
	product.Description = strings.TrimSpace(input.Description)
	product.SKU = strings.TrimSpace(input.SKU)
	product.Category = strings.TrimSpace(input.Category)
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	product.UpdatedAt = s.now()
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return mapError(s.repo.Delete(ctx, id))
}

func (s *Service) List(ctx context.Context, query ports.Query) ([]*domain.Product, error) {
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
	if errors.Is(err, domain.ErrEmptyName) || errors.Is(err, domain.ErrNegativePrice) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
