package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/http/mapper"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	apierrors "github.com/swiftcourier/courier-api/internal/shared/errors"
)

type createPackageRequest struct {
	TrackingNumber      string   `json:"trackingNumber"`
	ServiceType         string   `json:"serviceType"`
	CostCents           int64    `json:"costCents"`
	CurrentLocation     string   `json:"currentLocation"`
	SenderLocationID    int64    `json:"senderLocationId"`
	RecipientLocationID int64    `json:"recipientLocationId"`
	HandlingFlags       []string `json:"handlingFlags"`
}

type updatePackageRequest struct {
	ServiceType     *string   `json:"serviceType"`
	CostCents       *int64    `json:"costCents"`
	CurrentLocation *string   `json:"currentLocation"`
	HandlingFlags   *[]string `json:"handlingFlags"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type addActivityRequest struct {
	Description string `json:"description" binding:"required"`
	Location    string `json:"location"`
}

// Post /v1/packages
// Register a new package
func (s *Server) createPackage(c *gin.Context) {
	var payload createPackageRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	input := ports.CreatePackageInput{
		TrackingNumber:      payload.TrackingNumber,
		ServiceType:         domain.ServiceType(payload.ServiceType),
		CostCents:           payload.CostCents,
		CurrentLocation:     payload.CurrentLocation,
		SenderLocationID:    payload.SenderLocationID,
		RecipientLocationID: payload.RecipientLocationID,
		HandlingFlags:       payload.HandlingFlags,
		CreatedBy:           actorName(c),
	}
	pkg, err := s.shipments.CreatePackage(c.Request.Context(), input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondCreated(c, mapper.FromPackage(pkg))
}

// Get /v1/packages
// List packages with optional q/status/limit filters
func (s *Server) listPackages(c *gin.Context) {
	query := ports.PackageQuery{
		Text:   c.Query("q"),
		Status: domain.Status(c.Query("status")),
		Limit:  intQuery(c, "limit"),
	}
	packages, err := s.shipments.List(c.Request.Context(), query)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondList(c, mapper.FromPackageList(packages), len(packages))
}

// Get /v1/packages/:trackingNumber
// Track a single package
func (s *Server) getPackage(c *gin.Context) {
	pkg, err := s.shipments.GetByTrackingNumber(c.Request.Context(), c.Param("trackingNumber"))
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, mapper.FromPackage(pkg))
}

// Patch /v1/packages/:trackingNumber
// Merge optional package fields
func (s *Server) updatePackage(c *gin.Context) {
	var payload updatePackageRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	input := ports.UpdatePackageInput{
		CostCents:       payload.CostCents,
		CurrentLocation: payload.CurrentLocation,
		HandlingFlags:   payload.HandlingFlags,
	}
	if payload.ServiceType != nil {
		serviceType := domain.ServiceType(*payload.ServiceType)
		input.ServiceType = &serviceType
	}
	pkg, err := s.shipments.UpdatePackage(c.Request.Context(), c.Param("trackingNumber"), input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, mapper.FromPackage(pkg))
}

// Put /v1/packages/:trackingNumber/status
// Transition a package to a new status
func (s *Server) updateStatus(c *gin.Context) {
	var payload updateStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	pkg, err := s.shipments.UpdateStatus(
		c.Request.Context(),
		c.Param("trackingNumber"),
		domain.Status(payload.Status),
		payload.Reason,
		actorName(c),
	)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, mapper.FromPackage(pkg))
}

// Post /v1/packages/:trackingNumber/activities
// Append a note to the package history
func (s *Server) addActivity(c *gin.Context) {
	var payload addActivityRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	activity, err := s.shipments.AddActivity(
		c.Request.Context(),
		c.Param("trackingNumber"),
		payload.Description,
		payload.Location,
		actorName(c),
	)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondCreated(c, mapper.FromActivity(activity))
}

// Get /v1/packages/:trackingNumber/activities
// Full history trail for a package
func (s *Server) listActivities(c *gin.Context) {
	activities, err := s.shipments.Activities(c.Request.Context(), c.Param("trackingNumber"))
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondList(c, mapper.FromActivityList(activities), len(activities))
}

// Post /v1/packages/:trackingNumber/simulate
// Kick off the demo delivery progression
func (s *Server) simulateProgression(c *gin.Context) {
	trackingNumber := c.Param("trackingNumber")
	if _, err := s.shipments.GetByTrackingNumber(c.Request.Context(), trackingNumber); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	if err := s.progression.StartProgression(c.Request.Context(), trackingNumber); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, gin.H{"trackingNumber": trackingNumber, "simulation": "started"})
}

// Delete /v1/packages/:trackingNumber
// Remove a package (admin only); history records stay
func (s *Server) deletePackage(c *gin.Context) {
	if err := s.shipments.Delete(c.Request.Context(), c.Param("trackingNumber")); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func actorName(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.Username
	}
	return ""
}
