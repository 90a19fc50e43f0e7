package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	locationsapp "github.com/swiftcourier/courier-api/internal/domains/locations/application"
	locationdomain "github.com/swiftcourier/courier-api/internal/domains/locations/domain"
	locationports "github.com/swiftcourier/courier-api/internal/domains/locations/ports"
	apierrors "github.com/swiftcourier/courier-api/internal/shared/errors"
)

type locationRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type locationUpdateRequest struct {
	Name       *string `json:"name"`
	Type       *string `json:"type"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
}

type locationResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	Country    string    `json:"country,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func fromLocation(loc *locationdomain.Location) locationResponse {
	return locationResponse{
		ID:         loc.ID,
		Name:       loc.Name,
		Type:       string(loc.Type),
		Address:    loc.Address,
		City:       loc.City,
		State:      loc.State,
		PostalCode: loc.PostalCode,
		Country:    loc.Country,
		CreatedAt:  loc.CreatedAt,
		UpdatedAt:  loc.UpdatedAt,
	}
}

func (s *Server) createLocation(c *gin.Context) {
	var payload locationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	loc, err := s.locations.Create(c.Request.Context(), locationsapp.CreateInput{
		Name:       payload.Name,
		Type:       locationdomain.Type(payload.Type),
		Address:    payload.Address,
		City:       payload.City,
		State:      payload.State,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
	})
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondCreated(c, fromLocation(loc))
}

func (s *Server) getLocation(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		s.responder.RespondError(c, apierrors.BadRequest("invalid location id"))
		return
	}
	loc, err := s.locations.GetByID(c.Request.Context(), id)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, fromLocation(loc))
}

func (s *Server) updateLocation(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		s.responder.RespondError(c, apierrors.BadRequest("invalid location id"))
		return
	}
	var payload locationUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	input := locationsapp.UpdateInput{
		Name:       payload.Name,
		Address:    payload.Address,
		City:       payload.City,
		State:      payload.State,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
	}
	if payload.Type != nil {
		locationType := locationdomain.Type(*payload.Type)
		input.Type = &locationType
	}
	loc, err := s.locations.Update(c.Request.Context(), id, input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, fromLocation(loc))
}

func (s *Server) deleteLocation(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		s.responder.RespondError(c, apierrors.BadRequest("invalid location id"))
		return
	}
	if err := s.locations.Delete(c.Request.Context(), id); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (s *Server) listLocations(c *gin.Context) {
	query := locationports.Query{
		Text:  c.Query("q"),
		Type:  locationdomain.Type(c.Query("type")),
		Limit: intQuery(c, "limit"),
	}
	locations, err := s.locations.List(c.Request.Context(), query)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	result := make([]locationResponse, 0, len(locations))
	for _, loc := range locations {
		result = append(result, fromLocation(loc))
	}
	respondList(c, result, len(result))
}
