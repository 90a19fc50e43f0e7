package domain

import (
	"errors"
	"strings"
	"time"
)

// Type classifies a facility in the courier network.
type Type string

const (
	TypeWarehouse Type = "warehouse"
	TypeHub       Type = "hub"
	TypeOffice    Type = "office"
	TypeResidence Type = "residence"
)

var (
	ErrEmptyName   = errors.New("location name is required")
	ErrInvalidType = errors.New("location type is invalid")
)

// Location is an independently managed facility record. Packages reference
// locations by id only; deleting a location never cascades.
type Location struct {
	ID         int64
	Name       string
	Type       Type
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLocation validates and constructs a location.
func NewLocation(name string, locationType Type) (*Location, error) {
	loc := &Location{Name: strings.TrimSpace(name), Type: locationType}
	if loc.Type == "" {
		loc.Type = TypeOffice
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return loc, nil
}

// Validate enforces invariants on the record.
func (l *Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	switch l.Type {
	case TypeWarehouse, TypeHub, TypeOffice, TypeResidence:
		return nil
	default:
		return ErrInvalidType
	}
}
