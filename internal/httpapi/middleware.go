package httpapi

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	userdomain "github.com/swiftcourier/courier-api/internal/domains/users/domain"
	apierrors "github.com/swiftcourier/courier-api/internal/shared/errors"
)

const contextUserKey = "httpapi.user"

// requireAuth resolves the bearer token and stores the user in the
// request context. Missing or invalid tokens end the request with 401.
func (s *Server) requireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		s.responder.RespondError(c, apierrors.Unauthorized(""))
		return
	}
	user, err := s.users.ResolveToken(c.Request.Context(), token)
	if err != nil {
		s.responder.RespondError(c, apierrors.Unauthorized("invalid or expired token"))
		return
	}
	c.Set(contextUserKey, user)
	c.Next()
}

// requireAdmin runs after requireAuth and rejects non-admin roles.
func (s *Server) requireAdmin(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		s.responder.RespondError(c, apierrors.Unauthorized(""))
		return
	}
	if !user.IsAdmin() {
		s.responder.RespondError(c, apierrors.Forbidden(""))
		return
	}
	c.Next()
}

// recovery converts handler panics into a generic 500 without leaking
// internals.
func (s *Server) recovery(c *gin.Context, recovered any) {
	s.responder.RespondError(c, apierrors.Internal(fmt.Errorf("panic: %v", recovered)))
}

func currentUser(c *gin.Context) *userdomain.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*userdomain.User)
	return user
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
