package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyName     = errors.New("product name is required")
	ErrNegativePrice = errors.New("price must not be negative")
)

// Product is a catalog item (shipping supplies) unrelated to the package
// lifecycle.
type Product struct {
	ID          int64
	Name        string
	Description string
	SKU         string
	Category    string
	PriceCents  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct validates and constructs a product.
func NewProduct(name string, priceCents int64) (*Product, error) {
	p := &Product{Name: strings.TrimSpace(name), PriceCents: priceCents}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces invariants on the record.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.PriceCents < 0 {
		return ErrNegativePrice
	}
	return nil
}
