package shipments

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	shipmentactivities "github.com/swiftcourier/courier-api/internal/durable/temporal/activities/shipments"
)

const (
	// ProgressionWorkflowName is the public identifier for registering the workflow.
	ProgressionWorkflowName = "shipments.workflows.Progression"
	// ProgressionTaskQueue is the queue consumed by the worker processing shipment workflows.
	ProgressionTaskQueue = "SHIPMENT_PROGRESSION"

	// DefaultStepDelay is the pause between simulated delivery steps.
	DefaultStepDelay = 5 * time.Second
	// maxSteps bounds the loop so a misbehaving package cannot run forever.
	maxSteps = 8
)

// ProgressionWorkflowInput captures the payload required to simulate delivery.
type ProgressionWorkflowInput struct {
	TrackingNumber string
	StepDelay      time.Duration
	TraceID        string
}

// ProgressionWorkflow walks a package through the delivery progression one
// status at a time, sleeping between steps, until it reaches a terminal state.
func ProgressionWorkflow(ctx workflow.Context, input ProgressionWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("ProgressionWorkflow started", withTraceID(input.TraceID, "trackingNumber", input.TrackingNumber)...)

	stepDelay := input.StepDelay
	if stepDelay <= 0 {
		stepDelay = DefaultStepDelay
	}
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	for step := 0; step < maxSteps; step++ {
		var result shipmentactivities.AdvanceResult
		if err := workflow.ExecuteActivity(ctx, shipmentactivities.AdvanceStatusActivityName, input.TrackingNumber).Get(ctx, &result); err != nil {
			logger.Error("ProgressionWorkflow failed", withTraceID(input.TraceID, "trackingNumber", input.TrackingNumber, "error", err)...)
			return err
		}
		if result.Terminal {
			logger.Info("ProgressionWorkflow completed", withTraceID(input.TraceID, "trackingNumber", input.TrackingNumber, "status", result.Status)...)
			return nil
		}
		if err := workflow.Sleep(ctx, stepDelay); err != nil {
			return err
		}
	}
	logger.Warn("ProgressionWorkflow stopped before terminal status", withTraceID(input.TraceID, "trackingNumber", input.TrackingNumber)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
