package domain

import (
	"time"

	"github.com/google/uuid"
)

// TopicAdminPackages carries every package-domain event for admin listeners.
const TopicAdminPackages = "admin:packages"

// Event is the base interface for all shipment domain events. Events are
// transient: they are delivered to current subscribers and then discarded;
// only the corresponding Activity record persists.
type Event interface {
	EventName() string
	EventID() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	ID        string
	Timestamp time.Time
}

// NewBaseEvent stamps a fresh event identity.
func NewBaseEvent(now time.Time) BaseEvent {
	return BaseEvent{ID: uuid.NewString(), Timestamp: now}
}

// EventID returns the unique identity of this occurrence.
func (e BaseEvent) EventID() string { return e.ID }

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// PackageCreated is raised when a new package enters the system.
type PackageCreated struct {
	BaseEvent
	TrackingNumber string
	Status         Status
	ServiceType    ServiceType
}

// EventName returns the event type identifier.
func (e PackageCreated) EventName() string { return "package_created" }

// StatusChanged is raised when a package moves to a new status.
type StatusChanged struct {
	BaseEvent
	TrackingNumber string
	FromStatus     Status
	NewStatus      Status
	Reason         string
	Location       string
}

// EventName returns the event type identifier.
func (e StatusChanged) EventName() string { return "status_changed" }

// PackageUpdated is raised when package data changes without a status
// transition, including appended notes and location updates.
type PackageUpdated struct {
	BaseEvent
	TrackingNumber string
	Status         Status
	Description    string
	Location       string
	Changes        map[string]string
}

// EventName returns the event type identifier.
func (e PackageUpdated) EventName() string { return "package_updated" }

// PackageDeleted is raised when an admin removes a package.
type PackageDeleted struct {
	BaseEvent
	TrackingNumber string
}

// EventName returns the event type identifier.
func (e PackageDeleted) EventName() string { return "package_deleted" }
