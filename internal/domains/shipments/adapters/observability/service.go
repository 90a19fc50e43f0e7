package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
)

const tracerName = "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/observability/service"

// Service decorates the shipments engine with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core engine.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// CreatePackage registers a new shipment with instrumentation.
func (s *Service) CreatePackage(ctx context.Context, input ports.CreatePackageInput) (*domain.Package, error) {
	ctx, span := s.startSpan(ctx, "Service.CreatePackage", attribute.String("package.tracking_number", input.TrackingNumber))
	defer span.End()

	s.logInfo(ctx, "creating package", slog.String("trackingNumber", input.TrackingNumber))
	result, err := s.inner.CreatePackage(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create package", slog.String("trackingNumber", input.TrackingNumber))
	}
	s.metrics.recordCreated(ctx, result.Status)
	s.logInfo(ctx, "package created", slog.String("trackingNumber", result.TrackingNumber), slog.String("status", string(result.Status)))
	return result, nil
}

// GetByTrackingNumber loads a single package.
func (s *Service) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	ctx, span := s.startSpan(ctx, "Service.GetByTrackingNumber", attribute.String("package.tracking_number", trackingNumber))
	defer span.End()

	result, err := s.inner.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load package", slog.String("trackingNumber", trackingNumber))
	}
	return result, nil
}

// List returns packages matching the query.
func (s *Service) List(ctx context.Context, query ports.PackageQuery) ([]*domain.Package, error) {
	ctx, span := s.startSpan(ctx, "Service.List",
		attribute.String("package.query.status", string(query.Status)),
		attribute.String("package.query.text", query.Text),
	)
	defer span.End()

	result, err := s.inner.List(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list packages")
	}
	span.SetAttributes(attribute.Int("package.result.count", len(result)))
	return result, nil
}

// UpdatePackage applies a partial update.
func (s *Service) UpdatePackage(ctx context.Context, trackingNumber string, input ports.UpdatePackageInput) (*domain.Package, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdatePackage", attribute.String("package.tracking_number", trackingNumber))
	defer span.End()

	s.logInfo(ctx, "updating package", slog.String("trackingNumber", trackingNumber))
	result, err := s.inner.UpdatePackage(ctx, trackingNumber, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update package", slog.String("trackingNumber", trackingNumber))
	}
	s.metrics.recordUpdated(ctx, result.Status)
	s.logInfo(ctx, "package updated", slog.String("trackingNumber", result.TrackingNumber))
	return result, nil
}

// UpdateStatus moves a package through the delivery progression.
func (s *Service) UpdateStatus(ctx context.Context, trackingNumber string, status domain.Status, reason, actor string) (*domain.Package, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateStatus",
		attribute.String("package.tracking_number", trackingNumber),
		attribute.String("package.status.requested", string(status)),
	)
	defer span.End()

	s.logInfo(ctx, "updating package status",
		slog.String("trackingNumber", trackingNumber),
		slog.String("status", string(status)),
	)
	result, err := s.inner.UpdateStatus(ctx, trackingNumber, status, reason, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update package status",
			slog.String("trackingNumber", trackingNumber),
			slog.String("status", string(status)),
		)
	}
	s.metrics.recordStatusChanged(ctx, result.Status)
	s.logInfo(ctx, "package status updated",
		slog.String("trackingNumber", result.TrackingNumber),
		slog.String("status", string(result.Status)),
	)
	return result, nil
}

// AddActivity appends a manual note to the history trail.
func (s *Service) AddActivity(ctx context.Context, trackingNumber, description, location, actor string) (*domain.Activity, error) {
	ctx, span := s.startSpan(ctx, "Service.AddActivity", attribute.String("package.tracking_number", trackingNumber))
	defer span.End()

	s.logInfo(ctx, "adding package activity", slog.String("trackingNumber", trackingNumber))
	result, err := s.inner.AddActivity(ctx, trackingNumber, description, location, actor)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add package activity", slog.String("trackingNumber", trackingNumber))
	}
	s.metrics.recordActivity(ctx)
	return result, nil
}

// Activities loads the history trail for a package.
func (s *Service) Activities(ctx context.Context, trackingNumber string) ([]*domain.Activity, error) {
	ctx, span := s.startSpan(ctx, "Service.Activities", attribute.String("package.tracking_number", trackingNumber))
	defer span.End()

	result, err := s.inner.Activities(ctx, trackingNumber)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load package activities", slog.String("trackingNumber", trackingNumber))
	}
	span.SetAttributes(attribute.Int("package.activity.count", len(result)))
	return result, nil
}

// Delete removes a package and its trail.
func (s *Service) Delete(ctx context.Context, trackingNumber string) error {
	ctx, span := s.startSpan(ctx, "Service.Delete", attribute.String("package.tracking_number", trackingNumber))
	defer span.End()

	s.logInfo(ctx, "deleting package", slog.String("trackingNumber", trackingNumber))
	if err := s.inner.Delete(ctx, trackingNumber); err != nil {
		return s.handleError(ctx, span, err, "failed to delete package", slog.String("trackingNumber", trackingNumber))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "package deleted", slog.String("trackingNumber", trackingNumber))
	return nil
}

// Stats returns dashboard counters.
func (s *Service) Stats(ctx context.Context) (*ports.Stats, error) {
	ctx, span := s.startSpan(ctx, "Service.Stats")
	defer span.End()

	result, err := s.inner.Stats(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to compute package stats")
	}
	if result != nil {
		span.SetAttributes(
			attribute.Int64("package.stats.total", result.TotalPackages),
			attribute.Int64("package.stats.activities", result.TotalActivities),
		)
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	packagesCreated metric.Int64Counter
	packagesUpdated metric.Int64Counter
	packagesDeleted metric.Int64Counter
	statusChanges   metric.Int64Counter
	activitiesAdded metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("packages.service.created", metric.WithDescription("Number of packages registered"))
	updated, _ := m.Int64Counter("packages.service.updated", metric.WithDescription("Number of package detail updates"))
	deleted, _ := m.Int64Counter("packages.service.deleted", metric.WithDescription("Number of packages deleted"))
	statusChanges, _ := m.Int64Counter("packages.service.status_changes", metric.WithDescription("Number of status transitions applied"))
	activities, _ := m.Int64Counter("packages.service.activities", metric.WithDescription("Number of manual activities recorded"))
	return serviceMetrics{
		packagesCreated: created,
		packagesUpdated: updated,
		packagesDeleted: deleted,
		statusChanges:   statusChanges,
		activitiesAdded: activities,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.packagesCreated, 1, attribute.String("package.status", string(status)))
}

func (m serviceMetrics) recordUpdated(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.packagesUpdated, 1, attribute.String("package.status", string(status)))
}

func (m serviceMetrics) recordStatusChanged(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.statusChanges, 1, attribute.String("package.status", string(status)))
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	addCounter(ctx, m.packagesDeleted, 1)
}

func (m serviceMetrics) recordActivity(ctx context.Context) {
	addCounter(ctx, m.activitiesAdded, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
