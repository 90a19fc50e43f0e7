package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&packageRecord{},
		&activityRecord{},
		&locationRecord{},
		&productRecord{},
		&userRecord{},
		&sessionRecord{},
	)
}

// Package schema mirrors the shipments Postgres adapter.
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

// Activity schema mirrors the shipments Postgres adapter.
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

// Location schema mirrors the locations domain aggregate.
type locationRecord struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	Name       string    `gorm:"column:name"`
	Type       string    `gorm:"column:type;type:varchar(32);index"`
	Address    string    `gorm:"column:address"`
	City       string    `gorm:"column:city"`
	State      string    `gorm:"column:state"`
	PostalCode string    `gorm:"column:postal_code"`
	Country    string    `gorm:"column:country"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (locationRecord) TableName() string { return "locations" }

// Product schema mirrors the products domain aggregate.
type productRecord struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	SKU         string    `gorm:"column:sku;uniqueIndex"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	Category    string    `gorm:"column:category;index"`
	PriceCents  int64     `gorm:"column:price_cents"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// User schema mirrors the users domain aggregate.
type userRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Username     string    `gorm:"column:username;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	Email        string    `gorm:"column:email"`
	Role         string    `gorm:"column:role;type:varchar(16)"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Session schema backs JWT revocation checks.
type sessionRecord struct {
	TokenID   string     `gorm:"primaryKey;column:token_id;size:64"`
	Username  string     `gorm:"column:username;index"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }
