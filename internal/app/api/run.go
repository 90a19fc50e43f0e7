// Package api boots the courier HTTP service: observability, repositories,
// event bus, workflows, and the gin router.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	locationsmemory "github.com/swiftcourier/courier-api/internal/domains/locations/adapters/memory"
	locationsapp "github.com/swiftcourier/courier-api/internal/domains/locations/application"
	productsmemory "github.com/swiftcourier/courier-api/internal/domains/products/adapters/memory"
	productsapp "github.com/swiftcourier/courier-api/internal/domains/products/application"
	shipmentsmemory "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/memory"
	shipmentsobs "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/observability"
	shipmentspostgres "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/persistence/postgres"
	shipmentsworkflows "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/workflows"
	shipmentsapp "github.com/swiftcourier/courier-api/internal/domains/shipments/application"
	shipmentdomain "github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	shipmentsports "github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	usersmemory "github.com/swiftcourier/courier-api/internal/domains/users/adapters/memory"
	usersapp "github.com/swiftcourier/courier-api/internal/domains/users/application"
	"github.com/swiftcourier/courier-api/internal/httpapi"
	"github.com/swiftcourier/courier-api/internal/platform/eventbus"
	"github.com/swiftcourier/courier-api/internal/platform/migrations"
	platformobservability "github.com/swiftcourier/courier-api/internal/platform/observability"
	platformpostgres "github.com/swiftcourier/courier-api/internal/platform/postgres"
	"github.com/swiftcourier/courier-api/internal/seed"
)

// Run boots the courier HTTP API and blocks until the server exits.
func Run(ctx context.Context) error {
	const serviceName = "courier-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	packageRepo, cleanupRepo := buildPackageRepository(ctx, logger)
	defer cleanupRepo()

	bus := eventbus.New(eventbus.WithLogger(logger))

	coreShipments := shipmentsapp.NewService(
		packageRepo,
		shipmentsapp.WithPublisher(shipmentsports.PublisherFunc(func(topic string, event shipmentdomain.Event) {
			bus.Publish(topic, event)
		})),
	)
	shipmentService := shipmentsobs.New(
		coreShipments,
		shipmentsobs.WithLogger(logger),
		shipmentsobs.WithTracer(instruments.Tracer("internal.shipments.application")),
		shipmentsobs.WithMeter(instruments.Meter("internal.shipments.application")),
	)

	stepDelay := time.Duration(cfg.SimulationStepSeconds) * time.Second
	var progression shipmentsports.ProgressionOrchestrator = shipmentsworkflows.NewInlineProgression(
		shipmentService,
		shipmentsworkflows.WithStepDelay(stepDelay),
		shipmentsworkflows.WithLogger(logger),
	)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal unavailable, running progression simulations inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		progression = shipmentsworkflows.NewTemporalProgression(temporalClient, stepDelay)
		logger.Info("Temporal progression workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	locationService := locationsapp.NewService(locationsmemory.NewRepository())
	productService := productsapp.NewService(productsmemory.NewRepository())
	userService := usersapp.NewService(usersmemory.NewRepository(), usersmemory.NewSessionStore(), []byte(cfg.SigningKey))

	if cfg.SeedDemoData {
		seed.Run(ctx, seed.Services{
			Shipments: shipmentService,
			Locations: locationService,
			Products:  productService,
			Users:     userService,
		}, logger)
	}

	if cfg.SessionPurgeIntervalMinute > 0 {
		go purgeSessionsLoop(ctx, userService, time.Duration(cfg.SessionPurgeIntervalMinute)*time.Minute, logger)
	}

	server := httpapi.NewServer(shipmentService, progression, locationService, productService, userService, bus, logger)
	router := server.Router(otelgin.Middleware(serviceName))

	addr := ":" + cfg.Port
	logger.Info("courier API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("courier API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildPackageRepository(ctx context.Context, logger *slog.Logger) (shipmentsports.Repository, func()) {
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	if db == nil {
		return shipmentsmemory.NewRepository(), cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to in-memory repositories", slog.String("error", err.Error()))
		cleanup()
		return shipmentsmemory.NewRepository(), func() {}
	}
	logger.Info("package repository configured with postgres")
	return shipmentspostgres.NewRepository(db), cleanup
}

func purgeSessionsLoop(ctx context.Context, users *usersapp.Service, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := users.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session purge failed", slog.String("error", err.Error()))
				continue
			}
			if purged > 0 {
				logger.Info("expired sessions purged", slog.Int("count", purged))
			}
		}
	}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
