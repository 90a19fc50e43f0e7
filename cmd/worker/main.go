// The worker binary hosts the Temporal workflows that simulate delivery
// progression. It shares the package repository with the API process, so it
// needs POSTGRES_DSN pointed at the same database to be useful.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	shipmentsmemory "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/memory"
	shipmentsobs "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/observability"
	shipmentspostgres "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/persistence/postgres"
	shipmentsapp "github.com/swiftcourier/courier-api/internal/domains/shipments/application"
	shipmentsports "github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	shipmentactivities "github.com/swiftcourier/courier-api/internal/durable/temporal/activities/shipments"
	shipmentworkflows "github.com/swiftcourier/courier-api/internal/durable/temporal/workflows/shipments"
	"github.com/swiftcourier/courier-api/internal/platform/migrations"
	platformobservability "github.com/swiftcourier/courier-api/internal/platform/observability"
	platformpostgres "github.com/swiftcourier/courier-api/internal/platform/postgres"
)

func main() {
	ctx := context.Background()
	const serviceName = "courier-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	packageRepo, cleanupRepo := buildPackageRepository(ctx, logger)
	defer cleanupRepo()
	coreService := shipmentsapp.NewService(packageRepo)
	shipmentService := shipmentsobs.New(
		coreService,
		shipmentsobs.WithLogger(logger),
		shipmentsobs.WithTracer(instruments.Tracer("internal.shipments.application")),
		shipmentsobs.WithMeter(instruments.Meter("internal.shipments.application")),
	)
	activities := shipmentactivities.NewActivities(shipmentService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, shipmentworkflows.ProgressionTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(shipmentworkflows.ProgressionWorkflow, workflow.RegisterOptions{Name: shipmentworkflows.ProgressionWorkflowName})
	w.RegisterActivityWithOptions(activities.AdvanceStatus, activity.RegisterOptions{Name: shipmentactivities.AdvanceStatusActivityName})

	logger.Info("worker listening", slog.String("taskQueue", shipmentworkflows.ProgressionTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildPackageRepository(ctx context.Context, logger *slog.Logger) (shipmentsports.Repository, func()) {
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	if db == nil {
		return shipmentsmemory.NewRepository(), cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("worker failed to run migrations, falling back to in-memory repository", slog.String("error", err.Error()))
		cleanup()
		return shipmentsmemory.NewRepository(), func() {}
	}
	logger.Info("worker package repository configured with postgres")
	return shipmentspostgres.NewRepository(db), cleanup
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
