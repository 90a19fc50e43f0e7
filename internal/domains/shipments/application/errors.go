package application

import (
	"errors"
	"fmt"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid package input")
	// ErrNotFound signals an unknown tracking number or id.
	ErrNotFound = errors.New("package not found")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, ports.ErrDuplicateTracking) ||
		errors.Is(err, domain.ErrInvalidTrackingNumber) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidServiceType) ||
		errors.Is(err, domain.ErrNegativeCost) ||
		errors.Is(err, domain.ErrTransitionRejected) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
