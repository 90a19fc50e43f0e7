package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists packages and activity history in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&packageRecord{}, &activityRecord{})
	}
	return repo
}

// packageRecord maps the package aggregate to a relational table.
type packageRecord struct {
	ID                  int64          `gorm:"primaryKey;column:id"`
	TrackingNumber      string         `gorm:"column:tracking_number;uniqueIndex"`
	Status              string         `gorm:"column:status;type:varchar(32);index"`
	ServiceType         string         `gorm:"column:service_type;type:varchar(32)"`
	CostCents           int64          `gorm:"column:cost_cents"`
	CurrentLocation     string         `gorm:"column:current_location"`
	SenderLocationID    int64          `gorm:"column:sender_location_id"`
	RecipientLocationID int64          `gorm:"column:recipient_location_id"`
	HandlingFlags       pq.StringArray `gorm:"column:handling_flags;type:text[]"`
	CreatedAt           time.Time      `gorm:"column:created_at;index"`
	UpdatedAt           time.Time      `gorm:"column:updated_at"`
	DeliveredAt         *time.Time     `gorm:"column:delivered_at"`
}

func (packageRecord) TableName() string { return "packages" }

// activityRecord maps one history entry to a relational table.
type activityRecord struct {
	ID             string            `gorm:"primaryKey;column:id;size:64"`
	PackageID      int64             `gorm:"column:package_id;index"`
	TrackingNumber string            `gorm:"column:tracking_number;index"`
	Type           string            `gorm:"column:type;type:varchar(32)"`
	Status         string            `gorm:"column:status;type:varchar(32)"`
	Location       string            `gorm:"column:location"`
	Description    string            `gorm:"column:description"`
	Timestamp      time.Time         `gorm:"column:timestamp;index"`
	CreatedBy      string            `gorm:"column:created_by"`
	Metadata       map[string]string `gorm:"column:metadata;serializer:json"`
}

func (activityRecord) TableName() string { return "package_activities" }

// Save inserts or updates a package, keyed by tracking number on conflict.
func (r *Repository) Save(ctx context.Context, pkg *domain.Package) (*domain.Package, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, errors.New("package is nil")
	}
	record := toPackageRecord(pkg)
	if record.ID == 0 {
		var existing packageRecord
		err := r.db.WithContext(ctx).First(&existing, "tracking_number = ?", record.TrackingNumber).Error
		if err == nil {
			return nil, ports.ErrDuplicateTracking
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return nil, err
		}
		return r.GetByID(ctx, record.ID)
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":                record.Status,
				"service_type":          record.ServiceType,
				"cost_cents":            record.CostCents,
				"current_location":      record.CurrentLocation,
				"sender_location_id":    record.SenderLocationID,
				"recipient_location_id": record.RecipientLocationID,
				"handling_flags":        record.HandlingFlags,
				"updated_at":            gorm.Expr("NOW()"),
				"delivered_at":          record.DeliveredAt,
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a package by identifier.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Package, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record packageRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByTrackingNumber fetches a package by its public identifier.
func (r *Repository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record packageRecord
	if err := r.db.WithContext(ctx).First(&record, "tracking_number = ?", trackingNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Delete removes a package. Activity records are append-only history and
// stay behind.
func (r *Repository) Delete(ctx context.Context, trackingNumber string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).Delete(&packageRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns packages matching the query, newest id last.
func (r *Repository) List(ctx context.Context, query ports.PackageQuery) ([]*domain.Package, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	tx := r.db.WithContext(ctx).Order("id asc")
	if query.Status != "" {
		tx = tx.Where("status = ?", string(query.Status))
	}
	if text := strings.TrimSpace(query.Text); text != "" {
		pattern := "%" + strings.ToLower(text) + "%"
		tx = tx.Where("LOWER(tracking_number) LIKE ? OR LOWER(current_location) LIKE ?", pattern, pattern)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	var records []packageRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	packages := make([]*domain.Package, 0, len(records))
	for i := range records {
		packages = append(packages, records[i].toDomain())
	}
	return packages, nil
}

// AppendActivity writes one history entry. Entries are never updated.
func (r *Repository) AppendActivity(ctx context.Context, activity *domain.Activity) (*domain.Activity, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, errors.New("activity is nil")
	}
	record := toActivityRecord(activity)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// ActivitiesByTrackingNumber returns the history trail oldest first.
func (r *Repository) ActivitiesByTrackingNumber(ctx context.Context, trackingNumber string) ([]*domain.Activity, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []activityRecord
	if err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("timestamp asc, id asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	activities := make([]*domain.Activity, 0, len(records))
	for i := range records {
		activities = append(activities, records[i].toDomain())
	}
	return activities, nil
}

// CountActivities returns the total number of history entries.
func (r *Repository) CountActivities(ctx context.Context) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&activityRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres package repository not configured")
	}
	return nil
}

func toPackageRecord(pkg *domain.Package) packageRecord {
	return packageRecord{
		ID:                  pkg.ID,
		TrackingNumber:      pkg.TrackingNumber,
		Status:              string(pkg.Status),
		ServiceType:         string(pkg.ServiceType),
		CostCents:           pkg.CostCents,
		CurrentLocation:     pkg.CurrentLocation,
		SenderLocationID:    pkg.SenderLocationID,
		RecipientLocationID: pkg.RecipientLocationID,
		HandlingFlags:       pq.StringArray(pkg.HandlingFlags),
		CreatedAt:           pkg.CreatedAt,
		UpdatedAt:           pkg.UpdatedAt,
		DeliveredAt:         pkg.DeliveredAt,
	}
}

func (r packageRecord) toDomain() *domain.Package {
	return &domain.Package{
		ID:                  r.ID,
		TrackingNumber:      r.TrackingNumber,
		Status:              domain.Status(r.Status),
		ServiceType:         domain.ServiceType(r.ServiceType),
		CostCents:           r.CostCents,
		CurrentLocation:     r.CurrentLocation,
		SenderLocationID:    r.SenderLocationID,
		RecipientLocationID: r.RecipientLocationID,
		HandlingFlags:       []string(r.HandlingFlags),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		DeliveredAt:         r.DeliveredAt,
	}
}

func toActivityRecord(activity *domain.Activity) activityRecord {
	return activityRecord{
		ID:             activity.ID,
		PackageID:      activity.PackageID,
		TrackingNumber: activity.TrackingNumber,
		Type:           string(activity.Type),
		Status:         string(activity.Status),
		Location:       activity.Location,
		Description:    activity.Description,
		Timestamp:      activity.Timestamp,
		CreatedBy:      activity.CreatedBy,
		Metadata:       activity.Metadata,
	}
}

func (r activityRecord) toDomain() *domain.Activity {
	return &domain.Activity{
		ID:             r.ID,
		PackageID:      r.PackageID,
		TrackingNumber: r.TrackingNumber,
		Type:           domain.ActivityType(r.Type),
		Status:         domain.Status(r.Status),
		Location:       r.Location,
		Description:    r.Description,
		Timestamp:      r.Timestamp,
		CreatedBy:      r.CreatedBy,
		Metadata:       r.Metadata,
	}
}
