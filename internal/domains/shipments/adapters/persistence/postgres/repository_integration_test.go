//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	shipmentspostgres "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/persistence/postgres"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	"github.com/swiftcourier/courier-api/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("courier_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestPostgresRepository_SaveAndGetByTrackingNumber(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := shipmentspostgres.NewRepository(db)
	ctx := context.Background()

	pkg, err := domain.NewPackage("SC1234567890", domain.ServiceExpress, 2500)
	require.NoError(t, err)
	pkg.CurrentLocation = "Oakland Hub"
	pkg.HandlingFlags = []string{"fragile", "signature_required"}

	saved, err := repo.Save(ctx, pkg)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	retrieved, err := repo.GetByTrackingNumber(ctx, "SC1234567890")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, retrieved.ID)
	assert.Equal(t, domain.StatusPending, retrieved.Status)
	assert.Equal(t, domain.ServiceExpress, retrieved.ServiceType)
	assert.Equal(t, []string{"fragile", "signature_required"}, retrieved.HandlingFlags)
	assert.Nil(t, retrieved.DeliveredAt)
}

func TestPostgresRepository_DuplicateTracking(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := shipmentspostgres.NewRepository(db)
	ctx := context.Background()

	pkg, err := domain.NewPackage("SC0000000001", domain.ServiceStandard, 1000)
	require.NoError(t, err)
	_, err = repo.Save(ctx, pkg)
	require.NoError(t, err)

	dup, err := domain.NewPackage("SC0000000001", domain.ServiceStandard, 1000)
	require.NoError(t, err)
	_, err = repo.Save(ctx, dup)
	assert.ErrorIs(t, err, ports.ErrDuplicateTracking)
}

func TestPostgresRepository_StatusUpdateRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := shipmentspostgres.NewRepository(db)
	ctx := context.Background()

	pkg, err := domain.NewPackage("SC0000000002", domain.ServiceOvernight, 4500)
	require.NoError(t, err)
	saved, err := repo.Save(ctx, pkg)
	require.NoError(t, err)

	require.NoError(t, saved.TransitionTo(domain.StatusDelivered, nil, time.Now().UTC()))
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
}

func TestPostgresRepository_ActivitiesAppendOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := shipmentspostgres.NewRepository(db)
	ctx := context.Background()

	pkg, err := domain.NewPackage("SC0000000003", domain.ServiceStandard, 1200)
	require.NoError(t, err)
	saved, err := repo.Save(ctx, pkg)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, desc := range []string{"Package created", "Picked up by courier", "Arrived at sorting facility"} {
		_, err := repo.AppendActivity(ctx, &domain.Activity{
			ID:             uuid.NewString(),
			PackageID:      saved.ID,
			TrackingNumber: saved.TrackingNumber,
			Type:           domain.ActivityNoteAdded,
			Status:         saved.Status,
			Description:    desc,
			Timestamp:      base.Add(time.Duration(i) * time.Second),
			CreatedBy:      "integration",
			Metadata:       map[string]string{"step": desc},
		})
		require.NoError(t, err)
	}

	trail, err := repo.ActivitiesByTrackingNumber(ctx, saved.TrackingNumber)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, "Package created", trail[0].Description)
	assert.Equal(t, "Arrived at sorting facility", trail[2].Description)
	assert.Equal(t, "Package created", trail[0].Metadata["step"])

	count, err := repo.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPostgresRepository_ListFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := shipmentspostgres.NewRepository(db)
	ctx := context.Background()

	seed := []struct {
		tracking string
		status   domain.Status
		location string
	}{
		{"SC0000000010", domain.StatusPending, "Denver Hub"},
		{"SC0000000011", domain.StatusInTransit, "Chicago Hub"},
		{"SC0000000012", domain.StatusInTransit, "Denver Hub"},
	}
	for _, s := range seed {
		pkg, err := domain.NewPackage(s.tracking, domain.ServiceStandard, 1000)
		require.NoError(t, err)
		pkg.CurrentLocation = s.location
		saved, err := repo.Save(ctx, pkg)
		require.NoError(t, err)
		if s.status != domain.StatusPending {
			require.NoError(t, saved.TransitionTo(s.status, nil, time.Now().UTC()))
			_, err = repo.Save(ctx, saved)
			require.NoError(t, err)
		}
	}

	inTransit, err := repo.List(ctx, ports.PackageQuery{Status: domain.StatusInTransit})
	require.NoError(t, err)
	assert.Len(t, inTransit, 2)

	denver, err := repo.List(ctx, ports.PackageQuery{Text: "denver"})
	require.NoError(t, err)
	assert.Len(t, denver, 2)

	limited, err := repo.List(ctx, ports.PackageQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPostgresRepository_DeleteKeepsTrail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := shipmentspostgres.NewRepository(db)
	ctx := context.Background()

	pkg, err := domain.NewPackage("SC0000000020", domain.ServiceStandard, 1000)
	require.NoError(t, err)
	saved, err := repo.Save(ctx, pkg)
	require.NoError(t, err)
	_, err = repo.AppendActivity(ctx, &domain.Activity{
		ID:             "act-delete-1",
		PackageID:      saved.ID,
		TrackingNumber: saved.TrackingNumber,
		Type:           domain.ActivityCreated,
		Status:         saved.Status,
		Description:    "Package created",
		Timestamp:      time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, saved.TrackingNumber))

	_, err = repo.GetByTrackingNumber(ctx, saved.TrackingNumber)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// history is append-only and survives the delete
	trail, err := repo.ActivitiesByTrackingNumber(ctx, saved.TrackingNumber)
	require.NoError(t, err)
	assert.Len(t, trail, 1)

	assert.ErrorIs(t, repo.Delete(ctx, saved.TrackingNumber), ports.ErrNotFound)
}
