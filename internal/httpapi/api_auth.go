package httpapi

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/swiftcourier/courier-api/internal/shared/errors"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Post /v1/auth/login
// Exchange credentials for a session token
func (s *Server) login(c *gin.Context) {
	var payload loginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	token, user, err := s.users.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, loginResponse{Token: token, Username: user.Username, Role: string(user.Role)})
}

// Post /v1/auth/logout
// Revoke the presented session token
func (s *Server) logout(c *gin.Context) {
	if err := s.users.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, gin.H{"loggedOut": true})
}
