// Package httpapi exposes the courier service over HTTP: JSON CRUD
// endpoints for packages, locations, and products, auth endpoints, and
// the admin Server-Sent-Events stream.
package httpapi

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	locationsapp "github.com/swiftcourier/courier-api/internal/domains/locations/application"
	productsapp "github.com/swiftcourier/courier-api/internal/domains/products/application"
	shipmentsapp "github.com/swiftcourier/courier-api/internal/domains/shipments/application"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	usersapp "github.com/swiftcourier/courier-api/internal/domains/users/application"
	userdomain "github.com/swiftcourier/courier-api/internal/domains/users/domain"
	"github.com/swiftcourier/courier-api/internal/platform/eventbus"
	apierrors "github.com/swiftcourier/courier-api/internal/shared/errors"
)

// AuthService is the slice of the users service the transport needs.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *userdomain.User, error)
	Logout(ctx context.Context, token string) error
	ResolveToken(ctx context.Context, token string) (*userdomain.User, error)
}

// Server bundles the services behind the HTTP surface.
type Server struct {
	shipments   ports.Service
	progression ports.ProgressionOrchestrator
	locations   *locationsapp.Service
	products    *productsapp.Service
	users       AuthService
	bus         *eventbus.Bus
	logger      *slog.Logger
	responder   *apierrors.Responder
}

// NewServer wires the HTTP layer with its dependencies.
func NewServer(
	shipments ports.Service,
	progression ports.ProgressionOrchestrator,
	locations *locationsapp.Service,
	products *productsapp.Service,
	users AuthService,
	bus *eventbus.Bus,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		shipments:   shipments,
		progression: progression,
		locations:   locations,
		products:    products,
		users:       users,
		bus:         bus,
		logger:      logger,
	}
	s.responder = apierrors.NewResponder(logger,
		apierrors.MapIs(shipmentsapp.ErrNotFound, func() *apierrors.APIError {
			return apierrors.New(404, "package not found")
		}),
		apierrors.MapIs(shipmentsapp.ErrInvalidInput, func() *apierrors.APIError {
			return apierrors.BadRequest("invalid package input")
		}),
		apierrors.MapIs(locationsapp.ErrNotFound, func() *apierrors.APIError {
			return apierrors.New(404, "location not found")
		}),
		apierrors.MapIs(locationsapp.ErrInvalidInput, func() *apierrors.APIError {
			return apierrors.BadRequest("invalid location input")
		}),
		apierrors.MapIs(productsapp.ErrNotFound, func() *apierrors.APIError {
			return apierrors.New(404, "product not found")
		}),
		apierrors.MapIs(productsapp.ErrInvalidInput, func() *apierrors.APIError {
			return apierrors.BadRequest("invalid product input")
		}),
		apierrors.MapIs(usersapp.ErrInvalidCredentials, func() *apierrors.APIError {
			return apierrors.Unauthorized("invalid credentials")
		}),
	)
	return s
}

// Router builds the gin engine with all routes registered. Middleware
// passed here is installed before the routes so every handler runs it.
func (s *Server) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(s.recovery))
	router.Use(middleware...)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.login)
			auth.POST("/logout", s.requireAuth, s.logout)
		}

		packages := v1.Group("/packages")
		{
			packages.GET("", s.listPackages)
			packages.GET("/:trackingNumber", s.getPackage)
			packages.GET("/:trackingNumber/activities", s.listActivities)
			packages.POST("", s.requireAuth, s.createPackage)
			packages.PATCH("/:trackingNumber", s.requireAuth, s.updatePackage)
			packages.PUT("/:trackingNumber/status", s.requireAuth, s.updateStatus)
			packages.POST("/:trackingNumber/activities", s.requireAuth, s.addActivity)
			packages.POST("/:trackingNumber/simulate", s.requireAuth, s.requireAdmin, s.simulateProgression)
			packages.DELETE("/:trackingNumber", s.requireAuth, s.requireAdmin, s.deletePackage)
		}

		locations := v1.Group("/locations", s.requireAuth)
		{
			locations.POST("", s.createLocation)
			locations.GET("", s.listLocations)
			locations.GET("/:id", s.getLocation)
			locations.PATCH("/:id", s.updateLocation)
			locations.DELETE("/:id", s.deleteLocation)
		}

		products := v1.Group("/products")
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.POST("", s.requireAuth, s.createProduct)
			products.PATCH("/:id", s.requireAuth, s.updateProduct)
			products.DELETE("/:id", s.requireAuth, s.deleteProduct)
		}

		admin := v1.Group("/admin", s.requireAuth, s.requireAdmin)
		{
			admin.GET("/stream", s.adminStream)
			admin.GET("/stats", s.adminStats)
		}
	}
	return router
}
