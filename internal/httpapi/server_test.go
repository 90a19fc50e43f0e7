package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	locationsmemory "github.com/swiftcourier/courier-api/internal/domains/locations/adapters/memory"
	locationsapp "github.com/swiftcourier/courier-api/internal/domains/locations/application"
	productsmemory "github.com/swiftcourier/courier-api/internal/domains/products/adapters/memory"
	productsapp "github.com/swiftcourier/courier-api/internal/domains/products/application"
	shipmentsmemory "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/memory"
	shipmentsworkflows "github.com/swiftcourier/courier-api/internal/domains/shipments/adapters/workflows"
	shipmentsapp "github.com/swiftcourier/courier-api/internal/domains/shipments/application"
	shipmentdomain "github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	shipmentsports "github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	usersmemory "github.com/swiftcourier/courier-api/internal/domains/users/adapters/memory"
	usersapp "github.com/swiftcourier/courier-api/internal/domains/users/application"
	userdomain "github.com/swiftcourier/courier-api/internal/domains/users/domain"
	"github.com/swiftcourier/courier-api/internal/platform/eventbus"
)

type testApp struct {
	router        *gin.Engine
	bus           *eventbus.Bus
	shipments     shipmentsports.Service
	adminToken    string
	customerToken string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := eventbus.New()
	shipmentService := shipmentsapp.NewService(
		shipmentsmemory.NewRepository(),
		shipmentsapp.WithPublisher(shipmentsports.PublisherFunc(func(topic string, event shipmentdomain.Event) {
			bus.Publish(topic, event)
		})),
	)
	progression := shipmentsworkflows.NewInlineProgression(shipmentService, shipmentsworkflows.WithStepDelay(time.Millisecond))
	locationService := locationsapp.NewService(locationsmemory.NewRepository())
	productService := productsapp.NewService(productsmemory.NewRepository())
	userService := usersapp.NewService(usersmemory.NewRepository(), usersmemory.NewSessionStore(), []byte("test-signing-key"))

	ctx := context.Background()
	_, err := userService.Register(ctx, "admin", "admin123!", "admin@test.local", userdomain.RoleAdmin)
	require.NoError(t, err)
	_, err = userService.Register(ctx, "customer", "customer1!", "customer@test.local", userdomain.RoleCustomer)
	require.NoError(t, err)
	adminToken, _, err := userService.Login(ctx, "admin", "admin123!")
	require.NoError(t, err)
	customerToken, _, err := userService.Login(ctx, "customer", "customer1!")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(shipmentService, progression, locationService, productService, userService, bus, logger)
	return &testApp{
		router:        server.Router(),
		bus:           bus,
		shipments:     shipmentService,
		adminToken:    adminToken,
		customerToken: customerToken,
	}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginAndLogout(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"username": "admin", "password": "admin123!"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "admin", data["role"])

	token := data["token"].(string)
	rec = app.do(t, http.MethodPost, "/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// revoked token no longer authenticates
	rec = app.do(t, http.MethodPost, "/v1/packages", token, gin.H{"trackingNumber": "SC1111111111"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"username": "admin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid credentials", body["message"])
}

func TestCreatePackageRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", "", gin.H{"trackingNumber": "SC1234567890"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestCreateAndTrackPackage(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{
		"trackingNumber": "SC1234567890",
		"serviceType":    "express",
		"costCents":      1999,
		"handlingFlags":  []string{"fragile"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "SC1234567890", data["trackingNumber"])
	assert.Equal(t, "pending", data["status"])

	rec = app.do(t, http.MethodGet, "/v1/packages/SC1234567890", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "express", data["serviceType"])

	// the creation activity is public too
	rec = app.do(t, http.MethodGet, "/v1/packages/SC1234567890/activities", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total"])
}

func TestCreatePackageInvalidTracking(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": "BOGUS"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid package input", body["message"])
}

func TestTrackUnknownPackage(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/packages/SC0000000000", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "package not found", body["message"])
}

func TestUpdateStatusFlow(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": "SC1234567890"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodPut, "/v1/packages/SC1234567890/status", app.customerToken, gin.H{
		"status": "in_transit",
		"reason": "weather",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "in_transit", data["status"])

	rec = app.do(t, http.MethodGet, "/v1/packages/SC1234567890/activities", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["total"])
	activities := body["data"].([]any)
	last := activities[len(activities)-1].(map[string]any)
	assert.Equal(t, "status_changed", last["type"])
	assert.Equal(t, "customer", last["createdBy"])
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": "SC1234567890"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodPut, "/v1/packages/SC1234567890/status", app.customerToken, gin.H{"status": "teleported"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePackageRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": "SC1234567890"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodDelete, "/v1/packages/SC1234567890", app.customerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodDelete, "/v1/packages/SC1234567890", app.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/packages/SC1234567890", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPackagesWithFilters(t *testing.T) {
	app := newTestApp(t)

	for _, tn := range []string{"SC1111111111", "SC2222222222", "SC3333333333"} {
		rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": tn})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := app.do(t, http.MethodPut, "/v1/packages/SC2222222222/status", app.customerToken, gin.H{"status": "delivered"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/packages?status=delivered", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total"])

	rec = app.do(t, http.MethodGet, "/v1/packages?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(2), body["total"])
}

func TestLocationCRUDRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/locations", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/locations", app.customerToken, gin.H{"name": "Oakland Hub", "type": "hub"})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Oakland Hub", data["name"])

	rec = app.do(t, http.MethodGet, "/v1/locations", app.customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total"])
}

func TestProductCatalog(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/products", app.customerToken, gin.H{
		"name":       "Express Shipping",
		"sku":        "SHIP-EXP",
		"category":   "shipping",
		"priceCents": 1999,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// catalog reads are public
	rec = app.do(t, http.MethodGet, "/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total"])
}

func TestAdminStatsRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/admin/stats", app.customerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": "SC1234567890"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/admin/stats", app.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["totalPackages"])
	byStatus := data["byStatus"].(map[string]any)
	assert.Equal(t, float64(1), byStatus["pending"])
}

func TestSimulateRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": "SC1234567890"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/packages/SC1234567890/simulate", app.customerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/packages/SC1234567890/simulate", app.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		pkg, err := app.shipments.GetByTrackingNumber(context.Background(), "SC1234567890")
		return err == nil && pkg.Status == shipmentdomain.StatusDelivered
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAdminStreamDeliversEvents(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/packages", app.customerToken, gin.H{"trackingNumber": "SC1234567890"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stream", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+app.adminToken)
	streamRec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.router.ServeHTTP(streamRec, req)
	}()

	// wait for the gateway to subscribe before publishing
	require.Eventually(t, func() bool {
		return app.bus.SubscriberCount(shipmentdomain.TopicAdminPackages) > 0
	}, time.Second, 5*time.Millisecond)

	_, err := app.shipments.UpdateStatus(context.Background(), "SC1234567890", shipmentdomain.StatusInTransit, "weather", "admin")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(streamRec.snapshot(), `"status_changed"`)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not stop after client disconnect")
	}

	frames := parseSSEFrames(t, streamRec.snapshot())
	require.NotEmpty(t, frames)
	assert.Equal(t, "connection", frames[0]["type"])
	var sawStats, sawStatusChange bool
	for _, frame := range frames {
		switch frame["type"] {
		case "stats":
			sawStats = true
		case "status_changed":
			sawStatusChange = true
			assert.Equal(t, "SC1234567890", frame["trackingNumber"])
			assert.Equal(t, "in_transit", frame["status"])
			assert.Equal(t, "weather", frame["reason"])
		}
	}
	assert.True(t, sawStats, "expected a stats snapshot frame")
	assert.True(t, sawStatusChange, "expected a status_changed frame")
}

func TestAdminStreamRejectsNonAdmin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/admin/stream", app.customerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/admin/stream", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// streamRecorder is a concurrency-safe http.ResponseWriter for tests that
// read the body while the streaming handler is still writing it.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   bytes.Buffer
	status int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *streamRecorder) WriteHeader(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) snapshot() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func parseSSEFrames(t *testing.T, body string) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame),
			fmt.Sprintf("malformed frame line: %s", line))
		frames = append(frames, frame)
	}
	return frames
}

func TestRouterRunsInjectedMiddlewareOnRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.New()
	shipmentService := shipmentsapp.NewService(shipmentsmemory.NewRepository())
	server := NewServer(
		shipmentService,
		shipmentsworkflows.NewInlineProgression(shipmentService),
		locationsapp.NewService(locationsmemory.NewRepository()),
		productsapp.NewService(productsmemory.NewRepository()),
		usersapp.NewService(usersmemory.NewRepository(), usersmemory.NewSessionStore(), []byte("test-signing-key")),
		bus,
		logger,
	)

	calls := 0
	router := server.Router(func(c *gin.Context) {
		calls++
		c.Next()
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/packages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, calls, "middleware must wrap every registered route")
}
