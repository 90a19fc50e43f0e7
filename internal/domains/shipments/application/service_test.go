package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/memory"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	"github.com/swiftcourier/courier-api/internal/platform/eventbus"
)

func newTestService(t *testing.T) (*Service, *eventbus.Bus) {
	t.Helper()
	bus := eventbus.New()
	svc := NewService(memory.NewRepository(), WithPublisher(ports.PublisherFunc(
		func(topic string, event domain.Event) { bus.Publish(topic, event) },
	)))
	return svc, bus
}

func createPackage(t *testing.T, svc *Service, trackingNumber string) *domain.Package {
	t.Helper()
	pkg, err := svc.CreatePackage(context.Background(), ports.CreatePackageInput{
		TrackingNumber: trackingNumber,
		ServiceType:    domain.ServiceExpress,
		CostCents:      1299,
	})
	require.NoError(t, err)
	return pkg
}

func TestCreatePackage_GeneratesTrackingNumberAndFirstActivity(t *testing.T) {
	svc, _ := newTestService(t)

	pkg, err := svc.CreatePackage(context.Background(), ports.CreatePackageInput{})
	require.NoError(t, err)
	require.Regexp(t, `^SC\d{10}$`, pkg.TrackingNumber)
	require.Equal(t, domain.StatusPending, pkg.Status)

	activities, err := svc.Activities(context.Background(), pkg.TrackingNumber)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, domain.ActivityCreated, activities[0].Type)
}

func TestCreatePackage_StampsCreationTimestamps(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewRepository(), WithClock(func() time.Time { return fixed }))

	pkg, err := svc.CreatePackage(context.Background(), ports.CreatePackageInput{})
	require.NoError(t, err)
	require.Equal(t, fixed, pkg.CreatedAt)
	require.Equal(t, fixed, pkg.UpdatedAt)

	stored, err := svc.GetByTrackingNumber(context.Background(), pkg.TrackingNumber)
	require.NoError(t, err)
	require.False(t, stored.CreatedAt.IsZero())
	require.Equal(t, fixed, stored.CreatedAt)
}

func TestCreatePackage_DuplicateTrackingNumberRejected(t *testing.T) {
	svc, _ := newTestService(t)
	createPackage(t, svc, "SC1111111111")

	_, err := svc.CreatePackage(context.Background(), ports.CreatePackageInput{
		TrackingNumber: "SC1111111111",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateStatus_AppendsExactlyOneActivityAndPublishesOneEvent(t *testing.T) {
	svc, bus := newTestService(t)
	createPackage(t, svc, "SC1234567890")

	var received []domain.StatusChanged
	bus.Subscribe(domain.TopicAdminPackages, func(_ string, event eventbus.Event) {
		if sc, ok := event.(domain.StatusChanged); ok {
			received = append(received, sc)
		}
	})

	pkg, err := svc.UpdateStatus(context.Background(), "SC1234567890", domain.StatusInTransit, "weather", "ops")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInTransit, pkg.Status)

	activities, err := svc.Activities(context.Background(), "SC1234567890")
	require.NoError(t, err)
	require.Len(t, activities, 2) // created + status_changed
	latest := activities[len(activities)-1]
	require.Equal(t, domain.ActivityStatusChanged, latest.Type)
	require.Equal(t, domain.StatusInTransit, latest.Status)
	require.Equal(t, "weather", latest.Metadata[domain.MetadataReasonKey])

	require.Len(t, received, 1)
	require.Equal(t, "SC1234567890", received[0].TrackingNumber)
	require.Equal(t, domain.StatusInTransit, received[0].NewStatus)
	require.Equal(t, domain.StatusPending, received[0].FromStatus)
	require.Equal(t, "weather", received[0].Reason)
}

func TestUpdateStatus_StoreConsistentBeforePublish(t *testing.T) {
	svc, bus := newTestService(t)
	createPackage(t, svc, "SC2222222222")

	var observed domain.Status
	bus.Subscribe(domain.TopicAdminPackages, func(_ string, event eventbus.Event) {
		if _, ok := event.(domain.StatusChanged); !ok {
			return
		}
		// A subscriber re-querying the store must see the new state.
		pkg, err := svc.GetByTrackingNumber(context.Background(), "SC2222222222")
		require.NoError(t, err)
		observed = pkg.Status
	})

	_, err := svc.UpdateStatus(context.Background(), "SC2222222222", domain.StatusPickedUp, "", "ops")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPickedUp, observed)
}

func TestUpdateStatus_UnknownTrackingNumber(t *testing.T) {
	svc, bus := newTestService(t)

	events := 0
	bus.Subscribe(domain.TopicAdminPackages, func(string, eventbus.Event) { events++ })

	_, err := svc.UpdateStatus(context.Background(), "SC0000000000", domain.StatusInTransit, "", "ops")
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, events)
}

func TestUpdateStatus_DeliveredStampsDeliveredAt(t *testing.T) {
	svc, _ := newTestService(t)
	createPackage(t, svc, "SC3333333333")

	pkg, err := svc.UpdateStatus(context.Background(), "SC3333333333", domain.StatusDelivered, "", "ops")
	require.NoError(t, err)
	require.NotNil(t, pkg.DeliveredAt)
}

func TestUpdateStatus_PermissiveByDefault(t *testing.T) {
	svc, _ := newTestService(t)
	createPackage(t, svc, "SC4444444444")

	// delivered -> pending is accepted without a stricter validator
	_, err := svc.UpdateStatus(context.Background(), "SC4444444444", domain.StatusDelivered, "", "ops")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "SC4444444444", domain.StatusPending, "admin override", "ops")
	require.NoError(t, err)
}

func TestUpdateStatus_ValidatorHookRejects(t *testing.T) {
	bus := eventbus.New()
	svc := NewService(memory.NewRepository(),
		WithPublisher(ports.PublisherFunc(func(topic string, event domain.Event) { bus.Publish(topic, event) })),
		WithTransitionValidator(domain.ForwardOnlyTransitions),
	)
	createPackage(t, svc, "SC5555555555")

	_, err := svc.UpdateStatus(context.Background(), "SC5555555555", domain.StatusDelivered, "", "ops")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "SC5555555555", domain.StatusPending, "", "ops")
	require.ErrorIs(t, err, ErrInvalidInput)

	pkg, err := svc.GetByTrackingNumber(context.Background(), "SC5555555555")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, pkg.Status)
}

func TestAddActivity_ConcurrentAppendsBothSurvive(t *testing.T) {
	svc, _ := newTestService(t)
	createPackage(t, svc, "SC6666666666")

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.AddActivity(context.Background(), "SC6666666666", "scanned at hub", "Phoenix Hub", "scanner")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	activities, err := svc.Activities(context.Background(), "SC6666666666")
	require.NoError(t, err)
	require.Len(t, activities, workers+1) // +1 for the created record

	seen := map[string]bool{}
	for _, activity := range activities {
		require.False(t, seen[activity.ID], "activity id %s appeared twice", activity.ID)
		seen[activity.ID] = true
	}
}

func TestAddActivity_EmptyDescriptionRejected(t *testing.T) {
	svc, _ := newTestService(t)
	createPackage(t, svc, "SC7777777777")

	_, err := svc.AddActivity(context.Background(), "SC7777777777", "  ", "", "ops")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDelete_PublishesAndRemoves(t *testing.T) {
	svc, bus := newTestService(t)
	createPackage(t, svc, "SC8888888888")

	deleted := 0
	bus.Subscribe(domain.TopicAdminPackages, func(_ string, event eventbus.Event) {
		if _, ok := event.(domain.PackageDeleted); ok {
			deleted++
		}
	})

	require.NoError(t, svc.Delete(context.Background(), "SC8888888888"))
	require.Equal(t, 1, deleted)

	_, err := svc.GetByTrackingNumber(context.Background(), "SC8888888888")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(context.Background(), "SC8888888888"), ErrNotFound)
}

func TestStats_CountsByStatus(t *testing.T) {
	svc, _ := newTestService(t)
	createPackage(t, svc, "SC1000000001")
	createPackage(t, svc, "SC1000000002")
	_, err := svc.UpdateStatus(context.Background(), "SC1000000002", domain.StatusInTransit, "", "ops")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalPackages)
	require.EqualValues(t, 3, stats.TotalActivities)
	require.EqualValues(t, 1, stats.ByStatus[domain.StatusPending])
	require.EqualValues(t, 1, stats.ByStatus[domain.StatusInTransit])
}

func TestList_FiltersByStatusAndText(t *testing.T) {
	svc, _ := newTestService(t)
	createPackage(t, svc, "SC1000000001")
	createPackage(t, svc, "SC1000000002")
	_, err := svc.UpdateStatus(context.Background(), "SC1000000001", domain.StatusDelivered, "", "ops")
	require.NoError(t, err)

	delivered, err := svc.List(context.Background(), ports.PackageQuery{Status: domain.StatusDelivered})
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	require.Equal(t, "SC1000000001", delivered[0].TrackingNumber)

	matched, err := svc.List(context.Background(), ports.PackageQuery{Text: "0000002"})
	require.NoError(t, err)
	require.Len(t, matched, 1)

	limited, err := svc.List(context.Background(), ports.PackageQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
