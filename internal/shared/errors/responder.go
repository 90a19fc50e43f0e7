package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// failureBody is the envelope every error response uses.
type failureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Mapper translates a domain or application error into an APIError. The
// boolean reports whether the mapper recognized the error.
type Mapper func(err error) (*APIError, bool)

// Responder converts errors into envelope responses, trying each
// registered mapper before falling back to a generic 500.
type Responder struct {
	logger  *slog.Logger
	mappers []Mapper
}

// NewResponder creates a responder with the given error mappers.
func NewResponder(logger *slog.Logger, mappers ...Mapper) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{logger: logger, mappers: mappers}
}

// AddMapper appends an error mapper to the chain.
func (r *Responder) AddMapper(mapper Mapper) {
	r.mappers = append(r.mappers, mapper)
}

// RespondError writes the envelope for err. Unrecognized errors become a
// generic 500 with the cause logged server-side only.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		for _, mapper := range r.mappers {
			if mapped, ok := mapper(err); ok {
				apiErr = mapped
				break
			}
		}
	}
	if apiErr == nil {
		apiErr = Internal(err)
	}
	if apiErr.Status >= http.StatusInternalServerError {
		r.logger.Error("request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", apiErr.Error()),
		)
	}
	c.AbortWithStatusJSON(apiErr.Status, failureBody{Success: false, Message: apiErr.Message})
}

// MapIs builds a Mapper matching errors.Is against target.
func MapIs(target error, build func() *APIError) Mapper {
	return func(err error) (*APIError, bool) {
		if errors.Is(err, target) {
			return build().WithCause(err), true
		}
		return nil, false
	}
}
