package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cabin-booking-backend/config"
	"cabin-booking-backend/internal/api"
	"cabin-booking-backend/internal/auth"
	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/model"
	"cabin-booking-backend/internal/store"
)

// setupServer wires the full stack onto an in-memory SQLite database: one
// Small cabin and one admin account are seeded.
func setupServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// A named shared in-memory database keeps the pool's connections on the
	// same data while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	err = testDB.AutoMigrate(
		&model.Service{},
		&model.Cabin{},
		&model.Client{},
		&model.Reservation{},
		&model.PushSubscription{},
	)
	require.NoError(t, err)

	require.NoError(t, testDB.Create(&model.Cabin{
		Type:      model.CabinSmall,
		BasePrice: 100,
		Capacity:  2,
		Status:    model.StatusAvailable,
	}).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, testDB.Create(&model.Client{
		Name:         "Admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}).Error)

	appStore := store.NewGormStore(testDB)
	ledger := booking.NewLedger(appStore, nil)
	authProvider := auth.NewProvider(appStore, bcrypt.MinCost, time.Hour)

	cfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	}
	router := api.NewRouter(cfg, appStore, ledger, authProvider, &webpush.Options{})
	return router, testDB
}

// doJSON performs one request against the router. token, when non-empty, is
// sent as a bearer credential.
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type sessionResponse struct {
	Token  string       `json:"token"`
	Client model.Client `json:"client"`
}

type reservationResponse struct {
	Reservation model.Reservation `json:"reservation"`
	Warning     string            `json:"warning"`
}

type cabinResponse struct {
	model.Cabin
	NextAvailable *time.Time `json:"nextAvailable"`
}

type availabilityResponse struct {
	CabinID   int64 `json:"cabinId"`
	Available bool  `json:"available"`
}

// TestReservationLifecycle drives a booking from registration through
// double-booking rejection to cancellation, verifying the cabin status and
// availability projections at each step.
func TestReservationLifecycle(t *testing.T) {
	router, _ := setupServer(t)

	// --- Register a client ---
	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clientSess := decode[sessionResponse](t, w)
	require.NotEmpty(t, clientSess.Token)
	assert.Equal(t, model.RoleClient, clientSess.Client.Role)

	// --- The seeded cabin is free for the range ---
	w = doJSON(t, router, http.MethodGet, "/api/cabins/1/availability?start=2030-07-01&end=2030-07-05", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[availabilityResponse](t, w).Available)

	// --- Booking without a session is rejected ---
	w = doJSON(t, router, http.MethodPost, "/api/reservations", "", gin.H{
		"cabinId":    1,
		"startDate":  "2030-07-01",
		"endDate":    "2030-07-05",
		"totalPrice": 400,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// --- A wrong total is rejected before any write ---
	w = doJSON(t, router, http.MethodPost, "/api/reservations", clientSess.Token, gin.H{
		"cabinId":    1,
		"startDate":  "2030-07-01",
		"endDate":    "2030-07-05",
		"totalPrice": 350,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// --- Book it: 4 nights at 100 ---
	w = doJSON(t, router, http.MethodPost, "/api/reservations", clientSess.Token, gin.H{
		"cabinId":    1,
		"startDate":  "2030-07-01",
		"endDate":    "2030-07-05",
		"totalPrice": 400,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[reservationResponse](t, w)
	assert.Equal(t, model.ReservationConfirmed, created.Reservation.State)
	reservationID := created.Reservation.ID
	require.NotZero(t, reservationID)

	// --- An overlapping range now conflicts (the boundary day is occupied) ---
	w = doJSON(t, router, http.MethodPost, "/api/reservations", clientSess.Token, gin.H{
		"cabinId":    1,
		"startDate":  "2030-07-05",
		"endDate":    "2030-07-07",
		"totalPrice": 200,
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/cabins/1/availability?start=2030-07-03&end=2030-07-08", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[availabilityResponse](t, w).Available)

	// --- The cabin projects Reserved with the day after the last night ---
	w = doJSON(t, router, http.MethodGet, "/api/cabins", clientSess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cabins := decode[[]cabinResponse](t, w)
	require.Len(t, cabins, 1)
	assert.Equal(t, model.StatusReserved, cabins[0].Status)
	require.NotNil(t, cabins[0].NextAvailable)
	assert.Equal(t, "2030-07-06", cabins[0].NextAvailable.Format("2006-01-02"))

	// --- A date filter over the booked range hides the cabin ---
	w = doJSON(t, router, http.MethodGet, "/api/cabins/filter?start=2030-07-02&end=2030-07-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]cabinResponse](t, w))

	// --- Cancellation is admin-only ---
	cancelPath := fmt.Sprintf("/api/reservations/%d/cancel", reservationID)
	w = doJSON(t, router, http.MethodPost, cancelPath, clientSess.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "admin-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	adminSess := decode[sessionResponse](t, w)

	w = doJSON(t, router, http.MethodGet, "/api/reservations", adminSess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Reservation](t, w), 1)

	w = doJSON(t, router, http.MethodPost, cancelPath, adminSess.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// --- Cancelling again is an idempotent no-op ---
	w = doJSON(t, router, http.MethodPost, cancelPath, adminSess.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// --- The cabin is Available again and bookable for the same range ---
	w = doJSON(t, router, http.MethodGet, "/api/cabins", adminSess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cabins = decode[[]cabinResponse](t, w)
	require.Len(t, cabins, 1)
	assert.Equal(t, model.StatusAvailable, cabins[0].Status)
	assert.Nil(t, cabins[0].NextAvailable)

	w = doJSON(t, router, http.MethodGet, "/api/cabins/1/availability?start=2030-07-01&end=2030-07-05", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[availabilityResponse](t, w).Available)

	w = doJSON(t, router, http.MethodGet, "/api/cabins/filter?start=2030-07-02&end=2030-07-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]cabinResponse](t, w), 1)
}

// registerAndBook registers a client, books the seeded cabin for four July
// 2030 nights and logs in the seeded admin.
func registerAndBook(t *testing.T, router *gin.Engine) (client, admin sessionResponse) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	client = decode[sessionResponse](t, w)

	w = doJSON(t, router, http.MethodPost, "/api/reservations", client.Token, gin.H{
		"cabinId":    1,
		"startDate":  "2030-07-01",
		"endDate":    "2030-07-05",
		"totalPrice": 400,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "admin-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	admin = decode[sessionResponse](t, w)
	return client, admin
}

// TestMaintenanceCabinHasNoNextAvailable covers the display projection for a
// cabin placed under maintenance while it still has a confirmed reservation:
// maintenance is an operator override, not date-driven, so no next-available
// date may be attached to it.
func TestMaintenanceCabinHasNoNextAvailable(t *testing.T) {
	router, _ := setupServer(t)
	_, admin := registerAndBook(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/cabins", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cabins := decode[[]cabinResponse](t, w)
	require.Len(t, cabins, 1)
	assert.Equal(t, model.StatusReserved, cabins[0].Status)
	require.NotNil(t, cabins[0].NextAvailable)

	w = doJSON(t, router, http.MethodPut, "/api/cabins/1", admin.Token, gin.H{
		"type":      "Small",
		"basePrice": 100,
		"capacity":  2,
		"status":    "UnderMaintenance",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/cabins", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cabins = decode[[]cabinResponse](t, w)
	require.Len(t, cabins, 1)
	assert.Equal(t, model.StatusUnderMaintenance, cabins[0].Status)
	assert.Nil(t, cabins[0].NextAvailable, "maintenance is not date-driven")
}

// TestAdminCabinUpdatePreservesStatus covers an admin edit that omits the
// status field: the stored ledger-derived status must survive the update.
func TestAdminCabinUpdatePreservesStatus(t *testing.T) {
	router, _ := setupServer(t)
	_, admin := registerAndBook(t, router)

	w := doJSON(t, router, http.MethodPut, "/api/cabins/1", admin.Token, gin.H{
		"type":        "Small",
		"basePrice":   120,
		"capacity":    3,
		"description": "renovated",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/cabins", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cabins := decode[[]cabinResponse](t, w)
	require.Len(t, cabins, 1)
	assert.Equal(t, model.StatusReserved, cabins[0].Status, "a price edit must not release the cabin")
	assert.Equal(t, float64(120), cabins[0].BasePrice)
	assert.Equal(t, 3, cabins[0].Capacity)
}

// TestSubscriptionEndpoints checks the client-scoped push subscription CRUD.
func TestSubscriptionEndpoints(t *testing.T) {
	router, _ := setupServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decode[sessionResponse](t, w)

	sub := gin.H{
		"endpoint": "https://example.com/push",
		"p256dh":   "test_p256dh",
		"auth":     "test_auth",
	}

	w = doJSON(t, router, http.MethodPut, "/api/subscriptions", "", sub)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/subscriptions", sess.Token, sub)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Re-registering the same endpoint is an upsert, not a duplicate.
	w = doJSON(t, router, http.MethodPut, "/api/subscriptions", sess.Token, sub)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	type endpointList struct {
		Endpoints []string `json:"endpoints"`
	}
	w = doJSON(t, router, http.MethodGet, "/api/subscriptions", sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"https://example.com/push"}, decode[endpointList](t, w).Endpoints)

	w = doJSON(t, router, http.MethodDelete, "/api/subscriptions", sess.Token, gin.H{
		"endpoint": "https://example.com/push",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions", sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[endpointList](t, w).Endpoints)
}
