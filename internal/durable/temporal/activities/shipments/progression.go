package shipments

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
)

const (
	// AdvanceStatusActivityName moves a package one step along the delivery progression.
	AdvanceStatusActivityName = "shipments.activities.AdvanceStatus"

	// SimulatorActor is recorded as the author of simulator-driven history entries.
	SimulatorActor = "progression-simulator"
)

// AdvanceResult reports the outcome of one simulation step.
type AdvanceResult struct {
	TrackingNumber string
	Status         string
	Terminal       bool
}

// Activities groups Temporal activities operating on the shipments bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the shipments engine into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// AdvanceStatus transitions a package to its next status and reports whether
// the progression has reached a terminal state.
func (a *Activities) AdvanceStatus(ctx context.Context, trackingNumber string) (*AdvanceResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("advance status activity not initialized", "trackingNumber", trackingNumber)
		return nil, errors.New("advance status activity not initialized")
	}
	pkg, err := a.service.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		logger.Error("AdvanceStatus failed to load package", "trackingNumber", trackingNumber, "error", err)
		return nil, err
	}
	next, ok := pkg.NextStatus()
	if !ok {
		logger.Info("AdvanceStatus reached terminal status", "trackingNumber", trackingNumber, "status", string(pkg.Status))
		return &AdvanceResult{TrackingNumber: trackingNumber, Status: string(pkg.Status), Terminal: true}, nil
	}
	updated, err := a.service.UpdateStatus(ctx, trackingNumber, next, "simulated progression", SimulatorActor)
	if err != nil {
		logger.Error("AdvanceStatus failed", "trackingNumber", trackingNumber, "error", err)
		return nil, err
	}
	logger.Info("AdvanceStatus completed", "trackingNumber", trackingNumber, "status", string(updated.Status))
	return &AdvanceResult{
		TrackingNumber: trackingNumber,
		Status:         string(updated.Status),
		Terminal:       updated.IsTerminal(),
	}, nil
}
