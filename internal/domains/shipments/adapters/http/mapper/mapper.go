// Package mapper translates between shipments domain types and the JSON
// shapes the HTTP API exposes.
package mapper

import (
	"time"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
)

// PackageResponse is the wire representation of a package.
type PackageResponse struct {
	ID                  int64      `json:"id"`
	TrackingNumber      string     `json:"trackingNumber"`
	Status              string     `json:"status"`
	ServiceType         string     `json:"serviceType"`
	CostCents           int64      `json:"costCents"`
	CurrentLocation     string     `json:"currentLocation,omitempty"`
	SenderLocationID    int64      `json:"senderLocationId,omitempty"`
	RecipientLocationID int64      `json:"recipientLocationId,omitempty"`
	HandlingFlags       []string   `json:"handlingFlags,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	DeliveredAt         *time.Time `json:"deliveredAt,omitempty"`
}

// ActivityResponse is the wire representation of a history record.
type ActivityResponse struct {
	ID             string            `json:"id"`
	PackageID      int64             `json:"packageId"`
	TrackingNumber string            `json:"trackingNumber"`
	Type           string            `json:"type"`
	Status         string            `json:"status"`
	Location       string            `json:"location,omitempty"`
	Description    string            `json:"description"`
	Timestamp      time.Time         `json:"timestamp"`
	CreatedBy      string            `json:"createdBy,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// FromPackage converts a domain package.
func FromPackage(pkg *domain.Package) PackageResponse {
	return PackageResponse{
		ID:                  pkg.ID,
		TrackingNumber:      pkg.TrackingNumber,
		Status:              string(pkg.Status),
		ServiceType:         string(pkg.ServiceType),
		CostCents:           pkg.CostCents,
		CurrentLocation:     pkg.CurrentLocation,
		SenderLocationID:    pkg.SenderLocationID,
		RecipientLocationID: pkg.RecipientLocationID,
		HandlingFlags:       pkg.HandlingFlags,
		CreatedAt:           pkg.CreatedAt,
		UpdatedAt:           pkg.UpdatedAt,
		DeliveredAt:         pkg.DeliveredAt,
	}
}

// FromPackageList converts a slice of domain packages.
func FromPackageList(packages []*domain.Package) []PackageResponse {
	result := make([]PackageResponse, 0, len(packages))
	for _, pkg := range packages {
		result = append(result, FromPackage(pkg))
	}
	return result
}

// FromActivity converts a domain activity.
func FromActivity(activity *domain.Activity) ActivityResponse {
	return ActivityResponse{
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

// FromActivityList converts a slice of domain activities.
func FromActivityList(activities []*domain.Activity) []ActivityResponse {
	result := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		result = append(result, FromActivity(activity))
	}
	return result
}
