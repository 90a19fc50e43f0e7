package domain

import "time"

// ActivityType discriminates the kinds of history records.
type ActivityType string

const (
	ActivityCreated        ActivityType = "created"
	ActivityStatusChanged  ActivityType = "status_changed"
	ActivityNoteAdded      ActivityType = "note_added"
	ActivityLocationUpdate ActivityType = "location_update"
)

// MetadataReasonKey is the metadata key carrying a status-change reason.
const MetadataReasonKey = "reason"

// Activity is one immutable entry in a package's history trail. Records
// are append-only: they are never mutated or deleted once written.
type Activity struct {
	ID             string
	PackageID      int64
	TrackingNumber string
	Type           ActivityType
	Status         Status
	Location       string
	Description    string
	Timestamp      time.Time
	CreatedBy      string
	Metadata       map[string]string
}

// Clone returns a deep copy so callers cannot mutate stored history.
func (a *Activity) Clone() *Activity {
	clone := *a
	if a.Metadata != nil {
		clone.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
