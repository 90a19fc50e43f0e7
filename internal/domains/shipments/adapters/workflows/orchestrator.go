package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	shipmentworkflows "github.com/swiftcourier/courier-api/internal/durable/temporal/workflows/shipments"
)

var (
	_ ports.ProgressionOrchestrator = (*TemporalProgression)(nil)
	_ ports.ProgressionOrchestrator = (*InlineProgression)(nil)
)

// TemporalProgression starts delivery simulations on a Temporal cluster.
type TemporalProgression struct {
	client    client.Client
	taskQueue string
	stepDelay time.Duration
}

// NewTemporalProgression wires a Temporal client into the orchestrator.
func NewTemporalProgression(c client.Client, stepDelay time.Duration) *TemporalProgression {
	if stepDelay <= 0 {
		stepDelay = shipmentworkflows.DefaultStepDelay
	}
	return &TemporalProgression{
		client:    c,
		taskQueue: shipmentworkflows.ProgressionTaskQueue,
		stepDelay: stepDelay,
	}
}

// StartProgression launches the durable workflow and returns without waiting
// for the simulation to finish. A simulation already running for the same
// tracking number is not an error.
func (o *TemporalProgression) StartProgression(ctx context.Context, trackingNumber string) error {
	if o == nil || o.client == nil {
		return errors.New("temporal progression orchestrator not configured")
	}
	workflowID := fmt.Sprintf("shipment-progression-%s", strings.ToLower(trackingNumber))
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	// The worker registers the workflow under its alias, so start it by
	// name rather than by function reference.
	_, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		shipmentworkflows.ProgressionWorkflowName,
		shipmentworkflows.ProgressionWorkflowInput{
			TrackingNumber: trackingNumber,
			StepDelay:      o.stepDelay,
			TraceID:        workflowTraceID(ctx),
		},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

// InlineProgression advances statuses on a plain goroutine without Temporal,
// useful for tests or dev fallbacks.
type InlineProgression struct {
	service   ports.Service
	stepDelay time.Duration
	logger    *slog.Logger
}

// InlineOption configures the inline orchestrator.
type InlineOption func(*InlineProgression)

// WithStepDelay overrides the pause between simulated steps.
func WithStepDelay(d time.Duration) InlineOption {
	return func(o *InlineProgression) {
		if d > 0 {
			o.stepDelay = d
		}
	}
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) InlineOption {
	return func(o *InlineProgression) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewInlineProgression wraps the shipments engine for in-process simulation.
func NewInlineProgression(service ports.Service, opts ...InlineOption) *InlineProgression {
	o := &InlineProgression{
		service:   service,
		stepDelay: shipmentworkflows.DefaultStepDelay,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// StartProgression validates the package exists, then advances it in the
// background until terminal. The request context only guards the initial
// lookup; the background loop runs detached so the simulation outlives the
// HTTP request that started it.
func (o *InlineProgression) StartProgression(ctx context.Context, trackingNumber string) error {
	if o == nil || o.service == nil {
		return errors.New("inline progression orchestrator not configured")
	}
	pkg, err := o.service.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return err
	}
	if pkg.IsTerminal() {
		return nil
	}
	go o.run(pkg.TrackingNumber)
	return nil
}

func (o *InlineProgression) run(trackingNumber string) {
	ctx := context.Background()
	ticker := time.NewTicker(o.stepDelay)
	defer ticker.Stop()
	for range ticker.C {
		pkg, err := o.service.GetByTrackingNumber(ctx, trackingNumber)
		if err != nil {
			o.logger.Warn("progression simulation stopped", slog.String("trackingNumber", trackingNumber), slog.String("error", err.Error()))
			return
		}
		next, ok := pkg.NextStatus()
		if !ok {
			return
		}
		if _, err := o.service.UpdateStatus(ctx, trackingNumber, next, "simulated progression", "progression-simulator"); err != nil {
			o.logger.Warn("progression step failed", slog.String("trackingNumber", trackingNumber), slog.String("error", err.Error()))
			return
		}
	}
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
