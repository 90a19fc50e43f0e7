package shipments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	shipmentactivities "github.com/swiftcourier/courier-api/internal/durable/temporal/activities/shipments"
)

// newProgressionEnv mirrors the worker's registrations: workflow and
// activity are both registered under their aliases so tests exercise the
// same name-based dispatch the client uses.
func newProgressionEnv(t *testing.T, advance interface{}) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(ProgressionWorkflow, workflow.RegisterOptions{Name: ProgressionWorkflowName})
	env.RegisterActivityWithOptions(advance, activity.RegisterOptions{Name: shipmentactivities.AdvanceStatusActivityName})
	return env
}

func TestProgressionWorkflow_StartedByNameRunsToTerminal(t *testing.T) {
	steps := 0
	env := newProgressionEnv(t, func(_ context.Context, trackingNumber string) (shipmentactivities.AdvanceResult, error) {
		steps++
		return shipmentactivities.AdvanceResult{
			TrackingNumber: trackingNumber,
			Status:         "delivered",
			Terminal:       steps >= 3,
		}, nil
	})

	env.ExecuteWorkflow(ProgressionWorkflowName, ProgressionWorkflowInput{
		TrackingNumber: "SC1234567890",
		StepDelay:      time.Millisecond,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, 3, steps)
}

func TestProgressionWorkflow_ActivityFailurePropagates(t *testing.T) {
	env := newProgressionEnv(t, func(context.Context, string) (shipmentactivities.AdvanceResult, error) {
		return shipmentactivities.AdvanceResult{}, errors.New("store unavailable")
	})

	env.ExecuteWorkflow(ProgressionWorkflowName, ProgressionWorkflowInput{
		TrackingNumber: "SC1234567890",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
