package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Status enumerates package delivery progression.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPickedUp       Status = "picked_up"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusException      Status = "exception"
)

// ServiceType enumerates the offered shipping tiers.
type ServiceType string

const (
	ServiceStandard  ServiceType = "standard"
	ServiceExpress   ServiceType = "express"
	ServiceOvernight ServiceType = "overnight"
)

var (
	ErrInvalidTrackingNumber = errors.New("tracking number must be 'SC' followed by 10 digits")
	ErrInvalidStatus         = errors.New("package status is invalid")
	ErrInvalidServiceType    = errors.New("service type is invalid")
	ErrNegativeCost          = errors.New("cost must not be negative")
	ErrTransitionRejected    = errors.New("status transition rejected")
)

var trackingNumberPattern = regexp.MustCompile(`^SC\d{10}$`)

// TransitionValidator decides whether a status transition is allowed.
// The default validator accepts every transition; operators can install a
// stricter one without touching the engine.
type TransitionValidator func(from, to Status) error

// PermissiveTransitions accepts any requested transition, matching the
// admin-override behavior the dashboard relies on.
func PermissiveTransitions(Status, Status) error { return nil }

// ForwardOnlyTransitions rejects transitions that move backwards in the
// normal progression or out of a terminal status. Exception stays
// reachable from any non-terminal state.
func ForwardOnlyTransitions(from, to Status) error {
	if from == to {
		return nil
	}
	if from == StatusDelivered || from == StatusException {
		return fmt.Errorf("%w: %s is terminal", ErrTransitionRejected, from)
	}
	if to == StatusException {
		return nil
	}
	if statusRank(to) < statusRank(from) {
		return fmt.Errorf("%w: %s -> %s moves backwards", ErrTransitionRejected, from, to)
	}
	return nil
}

func statusRank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusPickedUp:
		return 1
	case StatusInTransit:
		return 2
	case StatusOutForDelivery:
		return 3
	case StatusDelivered:
		return 4
	default:
		return 5
	}
}

// Package models one shipment tracked end to end.
type Package struct {
	ID                  int64
	TrackingNumber      string
	Status              Status
	ServiceType         ServiceType
	CostCents           int64
	CurrentLocation     string
	SenderLocationID    int64
	RecipientLocationID int64
	HandlingFlags       []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeliveredAt         *time.Time
}

// NewPackage validates and constructs a package aggregate. An empty
// tracking number gets a generated one; an empty status defaults to pending.
func NewPackage(trackingNumber string, serviceType ServiceType, costCents int64) (*Package, error) {
	if trackingNumber == "" {
		trackingNumber = GenerateTrackingNumber()
	}
	pkg := &Package{
		TrackingNumber: strings.ToUpper(strings.TrimSpace(trackingNumber)),
		Status:         StatusPending,
		ServiceType:    serviceType,
		CostCents:      costCents,
	}
	if pkg.ServiceType == "" {
		pkg.ServiceType = ServiceStandard
	}
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

// Validate enforces invariants on the aggregate.
func (p *Package) Validate() error {
	if !trackingNumberPattern.MatchString(p.TrackingNumber) {
		return ErrInvalidTrackingNumber
	}
	if !isValidStatus(p.Status) {
		return ErrInvalidStatus
	}
	if !isValidServiceType(p.ServiceType) {
		return ErrInvalidServiceType
	}
	if p.CostCents < 0 {
		return ErrNegativeCost
	}
	return nil
}

// TransitionTo moves the package into status after consulting validate.
// A nil validator means permissive. Delivered stamps DeliveredAt.
func (p *Package) TransitionTo(status Status, validate TransitionValidator, now time.Time) error {
	if !isValidStatus(status) {
		return ErrInvalidStatus
	}
	if validate == nil {
		validate = PermissiveTransitions
	}
	if err := validate(p.Status, status); err != nil {
		return err
	}
	p.Status = status
	p.UpdatedAt = now
	if status == StatusDelivered {
		delivered := now
		p.DeliveredAt = &delivered
	}
	return nil
}

// IsTerminal reports whether forward progress is expected to stop.
func (p *Package) IsTerminal() bool {
	return p.Status == StatusDelivered || p.Status == StatusException
}

// NextStatus returns the following step in the normal progression and
// false once the package is terminal.
func (p *Package) NextStatus() (Status, bool) {
	switch p.Status {
	case StatusPending:
		return StatusPickedUp, true
	case StatusPickedUp:
		return StatusInTransit, true
	case StatusInTransit:
		return StatusOutForDelivery, true
	case StatusOutForDelivery:
		return StatusDelivered, true
	default:
		return p.Status, false
	}
}

// GenerateTrackingNumber produces a fresh "SC" + 10 digit identifier.
// Uniqueness is enforced by the repository, not here.
func GenerateTrackingNumber() string {
	return fmt.Sprintf("SC%010d", rand.Int63n(1e10))
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusPickedUp, StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusException:
		return true
	default:
		return false
	}
}

func isValidServiceType(t ServiceType) bool {
	switch t {
	case ServiceStandard, ServiceExpress, ServiceOvernight:
		return true
	default:
		return false
	}
}
