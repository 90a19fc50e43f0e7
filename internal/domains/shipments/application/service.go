package application

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
)

// Service is the status/activity engine. Every package mutation flows
// through here so the invariant holds: one store update, then exactly one
// appended Activity, then exactly one published event, in that order.
type Service struct {
	repo        ports.Repository
	publisher   ports.Publisher
	validate    domain.TransitionValidator
	now         func() time.Time
	trackingMus sync.Map // tracking number -> *sync.Mutex
}

type Option func(*Service)

// WithPublisher injects the event bus the engine notifies after mutations.
func WithPublisher(publisher ports.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithTransitionValidator installs a stricter transition policy than the
// permissive default.
func WithTransitionValidator(validate domain.TransitionValidator) Option {
	return func(s *Service) {
		s.validate = validate
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the engine with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: ports.NoopPublisher,
		validate:  domain.PermissiveTransitions,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePackage registers a new shipment, records its first activity, and
// announces it to subscribers.
func (s *Service) CreatePackage(ctx context.Context, input ports.CreatePackageInput) (*domain.Package, error) {
	pkg, err := domain.NewPackage(input.TrackingNumber, input.ServiceType, input.CostCents)
	if err != nil {
		return nil, mapError(err)
	}
	pkg.CurrentLocation = strings.TrimSpace(input.CurrentLocation)
	pkg.SenderLocationID = input.SenderLocationID
	pkg.RecipientLocationID = input.RecipientLocationID
	pkg.HandlingFlags = append([]string(nil), input.HandlingFlags...)
	now := s.now()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	unlock := s.lockTracking(pkg.TrackingNumber)
	defer unlock()

	saved, err := s.repo.Save(ctx, pkg)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.repo.AppendActivity(ctx, &domain.Activity{
		ID:             uuid.NewString(),
		PackageID:      saved.ID,
		TrackingNumber: saved.TrackingNumber,
		Type:           domain.ActivityCreated,
		Status:         saved.Status,
		Location:       saved.CurrentLocation,
		Description:    "package registered",
		Timestamp:      now,
		CreatedBy:      input.CreatedBy,
	}); err != nil {
		return nil, mapError(err)
	}
	s.publisher.Publish(domain.TopicAdminPackages, domain.PackageCreated{
		BaseEvent:      domain.NewBaseEvent(now),
		TrackingNumber: saved.TrackingNumber,
		Status:         saved.Status,
		ServiceType:    saved.ServiceType,
	})
	return saved, nil
}

// GetByTrackingNumber loads one package.
func (s *Service) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	pkg, err := s.repo.GetByTrackingNumber(ctx, normalizeTracking(trackingNumber))
	if err != nil {
		return nil, mapError(err)
	}
	return pkg, nil
}

// List returns packages matching the query filters.
func (s *Service) List(ctx context.Context, query ports.PackageQuery) ([]*domain.Package, error) {
	result, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// UpdatePackage merges optional fields, records the change, and notifies.
func (s *Service) UpdatePackage(ctx context.Context, trackingNumber string, input ports.UpdatePackageInput) (*domain.Package, error) {
	trackingNumber = normalizeTracking(trackingNumber)
	unlock := s.lockTracking(trackingNumber)
	defer unlock()

	pkg, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, mapError(err)
	}
	changes := map[string]string{}
	if input.ServiceType != nil {
		pkg.ServiceType = *input.ServiceType
		changes["service_type"] = string(*input.ServiceType)
	}
	if input.CostCents != nil {
		pkg.CostCents = *input.CostCents
		changes["cost_cents"] = strconv.FormatInt(*input.CostCents, 10)
	}
	if input.CurrentLocation != nil {
		pkg.CurrentLocation = strings.TrimSpace(*input.CurrentLocation)
		changes["current_location"] = pkg.CurrentLocation
	}
	if input.HandlingFlags != nil {
		pkg.HandlingFlags = append([]string(nil), (*input.HandlingFlags)...)
		changes["handling_flags"] = strings.Join(pkg.HandlingFlags, ",")
	}
	if len(changes) == 0 {
		return pkg, nil
	}
	if err := pkg.Validate(); err != nil {
		return nil, mapError(err)
	}
	now := s.now()
	pkg.UpdatedAt = now
	saved, err := s.repo.Save(ctx, pkg)
	if err != nil {
		return nil, mapError(err)
	}
	s.publisher.Publish(domain.TopicAdminPackages, domain.PackageUpdated{
		BaseEvent:      domain.NewBaseEvent(now),
		TrackingNumber: saved.TrackingNumber,
		Status:         saved.Status,
		Description:    "package details updated",
		Location:       saved.CurrentLocation,
		Changes:        changes,
	})
	return saved, nil
}

// UpdateStatus transitions a package, appends exactly one status_changed
// activity with the reason in metadata, and publishes exactly one
// StatusChanged event after the store is consistent.
func (s *Service) UpdateStatus(ctx context.Context, trackingNumber string, status domain.Status, reason, actor string) (*domain.Package, error) {
	trackingNumber = normalizeTracking(trackingNumber)
	unlock := s.lockTracking(trackingNumber)
	defer unlock()

	pkg, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, mapError(err)
	}
	from := pkg.Status
	now := s.now()
	if err := pkg.TransitionTo(status, s.validate, now); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, pkg)
	if err != nil {
		return nil, mapError(err)
	}
	metadata := map[string]string{"from_status": string(from)}
	if reason != "" {
		metadata[domain.MetadataReasonKey] = reason
	}
	if _, err := s.repo.AppendActivity(ctx, &domain.Activity{
		ID:             uuid.NewString(),
		PackageID:      saved.ID,
		TrackingNumber: saved.TrackingNumber,
		Type:           domain.ActivityStatusChanged,
		Status:         saved.Status,
		Location:       saved.CurrentLocation,
		Description:    statusDescription(saved.Status, reason),
		Timestamp:      now,
		CreatedBy:      actor,
		Metadata:       metadata,
	}); err != nil {
		return nil, mapError(err)
	}
	s.publisher.Publish(domain.TopicAdminPackages, domain.StatusChanged{
		BaseEvent:      domain.NewBaseEvent(now),
		TrackingNumber: saved.TrackingNumber,
		FromStatus:     from,
		NewStatus:      saved.Status,
		Reason:         reason,
		Location:       saved.CurrentLocation,
	})
	return saved, nil
}

// AddActivity appends a note to the history without changing status.
func (s *Service) AddActivity(ctx context.Context, trackingNumber, description, location, actor string) (*domain.Activity, error) {
	trackingNumber = normalizeTracking(trackingNumber)
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockTracking(trackingNumber)
	defer unlock()

	pkg, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, mapError(err)
	}
	now := s.now()
	activity, err := s.repo.AppendActivity(ctx, &domain.Activity{
		ID:             uuid.NewString(),
		PackageID:      pkg.ID,
		TrackingNumber: pkg.TrackingNumber,
		Type:           domain.ActivityNoteAdded,
		Status:         pkg.Status,
		Location:       location,
		Description:    description,
		Timestamp:      now,
		CreatedBy:      actor,
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publisher.Publish(domain.TopicAdminPackages, domain.PackageUpdated{
		BaseEvent:      domain.NewBaseEvent(now),
		TrackingNumber: pkg.TrackingNumber,
		Status:         pkg.Status,
		Description:    description,
		Location:       location,
	})
	return activity, nil
}

// Activities returns the full history trail for one package.
func (s *Service) Activities(ctx context.Context, trackingNumber string) ([]*domain.Activity, error) {
	trackingNumber = normalizeTracking(trackingNumber)
	if _, err := s.repo.GetByTrackingNumber(ctx, trackingNumber); err != nil {
		return nil, mapError(err)
	}
	activities, err := s.repo.ActivitiesByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, mapError(err)
	}
	return activities, nil
}

// Delete removes a package. History records stay.
func (s *Service) Delete(ctx context.Context, trackingNumber string) error {
	trackingNumber = normalizeTracking(trackingNumber)
	unlock := s.lockTracking(trackingNumber)
	defer unlock()

	if err := s.repo.Delete(ctx, trackingNumber); err != nil {
		return mapError(err)
	}
	s.publisher.Publish(domain.TopicAdminPackages, domain.PackageDeleted{
		BaseEvent:      domain.NewBaseEvent(s.now()),
		TrackingNumber: trackingNumber,
	})
	return nil
}

// Stats produces the snapshot served to admin clients.
func (s *Service) Stats(ctx context.Context) (*ports.Stats, error) {
	packages, err := s.repo.List(ctx, ports.PackageQuery{})
	if err != nil {
		return nil, mapError(err)
	}
	activities, err := s.repo.CountActivities(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	stats := &ports.Stats{
		TotalPackages:   int64(len(packages)),
		TotalActivities: activities,
		ByStatus:        map[domain.Status]int64{},
	}
	for _, pkg := range packages {
		stats.ByStatus[pkg.Status]++
	}
	return stats, nil
}

// lockTracking serializes read-modify-write sequences per tracking number
// so parallel handlers cannot interleave a lost update.
func (s *Service) lockTracking(trackingNumber string) func() {
	value, _ := s.trackingMus.LoadOrStore(trackingNumber, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func normalizeTracking(trackingNumber string) string {
	return strings.ToUpper(strings.TrimSpace(trackingNumber))
}

func statusDescription(status domain.Status, reason string) string {
	desc := "status changed to " + string(status)
	if reason != "" {
		desc += " (" + reason + ")"
	}
	return desc
}

var _ ports.Service = (*Service)(nil)
