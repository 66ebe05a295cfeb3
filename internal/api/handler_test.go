package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-backend/config"
	"parking-backend/internal/db"
	"parking-backend/internal/engine"
	"parking-backend/internal/model"
	"parking-backend/internal/store"
)

var apiDBCounter int64

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared", atomic.AddInt64(&apiDBCounter, 1))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(testDB))

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Billing.DayPassFee = 150
	cfg.Billing.Currency = "INR"
	cfg.Overstay.ThresholdHours = 6
	cfg.Push.PublicKey = "test-public-key"

	appStore := store.NewGormStore(testDB)
	manager := engine.NewManager(appStore, cfg.Billing)
	webpushOptions := &webpush.Options{VAPIDPublicKey: cfg.Push.PublicKey}
	return NewRouter(appStore, manager, cfg, webpushOptions), testDB
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Kind
}

func TestParkInRejectsMissingFields(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/parkin", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorKind(t, w))

	w = doJSON(router, http.MethodPost, "/api/parkin", map[string]any{"numberPlate": "KA01AB1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParkInRejectsUnknownVehicleClass(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/parkin", map[string]any{
		"numberPlate": "KA01AB1234", "vehicleClass": "hovercraft",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorKind(t, w))
}

func TestParkInRejectsMalformedPlate(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/parkin", map[string]any{
		"numberPlate": "!!", "vehicleClass": "car",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorKind(t, w))
}

func TestParkInReportsCapacityExhaustion(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/parkin", map[string]any{
		"numberPlate": "KA01AB1234", "vehicleClass": "car",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "capacity", errorKind(t, w))
}

func TestParkOutRequiresAnIdentifier(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/parkout", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorKind(t, w))
}

func TestParkOutUnknownSessionIs404(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/parkout", map[string]any{"sessionId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorKind(t, w))
}

func TestOverstayRejectsBadThreshold(t *testing.T) {
	router, _ := setupRouter(t)

	for _, raw := range []string{"abc", "0", "-2"} {
		w := doJSON(router, http.MethodGet, "/api/overstay?threshold_hours="+raw, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "threshold_hours=%s", raw)
	}
}

func TestOverstayReportsThresholdAndEntries(t *testing.T) {
	router, testDB := setupRouter(t)

	vehicle := model.Vehicle{NumberPlate: "KA01AB1234", VehicleClass: model.VehicleCar}
	require.NoError(t, testDB.Create(&vehicle).Error)
	slot := model.Slot{SlotNumber: "A-01", SlotClass: model.SlotStandard, Status: model.SlotOccupied, Floor: 1}
	require.NoError(t, testDB.Create(&slot).Error)
	session := model.Session{
		ID: "22222222-2222-2222-2222-222222222222", VehicleID: vehicle.ID, SlotID: slot.ID,
		Status: model.SessionActive, BillingType: model.BillingHourly,
		EntryTime: time.Now().UTC().Add(-2 * time.Hour),
	}
	require.NoError(t, testDB.Create(&session).Error)

	// Below the default threshold: no entries.
	w := doJSON(router, http.MethodGet, "/api/overstay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ThresholdHours float64 `json:"threshold_hours"`
		Vehicles       []struct {
			NumberPlate string `json:"number_plate"`
			SlotNumber  string `json:"slot_number"`
		} `json:"overstaying_vehicles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6.0, resp.ThresholdHours)
	assert.Empty(t, resp.Vehicles)

	// Overridden down to one hour the session qualifies.
	w = doJSON(router, http.MethodGet, "/api/overstay?threshold_hours=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.ThresholdHours)
	require.Len(t, resp.Vehicles, 1)
	assert.Equal(t, "KA01AB1234", resp.Vehicles[0].NumberPlate)
	assert.Equal(t, "A-01", resp.Vehicles[0].SlotNumber)
}

func TestPatchSlotValidation(t *testing.T) {
	router, testDB := setupRouter(t)
	slot := model.Slot{SlotNumber: "A-01", SlotClass: model.SlotStandard, Status: model.SlotAvailable, Floor: 1}
	require.NoError(t, testDB.Create(&slot).Error)

	w := doJSON(router, http.MethodPatch, "/api/slots", map[string]any{"slotId": slot.ID, "status": "occupied"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorKind(t, w))

	w = doJSON(router, http.MethodPatch, "/api/slots", map[string]any{"slotId": slot.ID, "status": "maintenance"})
	require.Equal(t, http.StatusOK, w.Code)

	var dbSlot model.Slot
	require.NoError(t, testDB.First(&dbSlot, slot.ID).Error)
	assert.Equal(t, model.SlotMaintenance, dbSlot.Status)
}

func TestPatchSlotRefusesOccupiedSlot(t *testing.T) {
	router, testDB := setupRouter(t)
	slot := model.Slot{SlotNumber: "A-01", SlotClass: model.SlotStandard, Status: model.SlotOccupied, Floor: 1}
	require.NoError(t, testDB.Create(&slot).Error)

	w := doJSON(router, http.MethodPatch, "/api/slots", map[string]any{"slotId": slot.ID, "status": "available"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSlotsDashboardCounts(t *testing.T) {
	router, testDB := setupRouter(t)
	for i, status := range []model.SlotStatus{model.SlotAvailable, model.SlotAvailable, model.SlotOccupied, model.SlotMaintenance} {
		slot := model.Slot{SlotNumber: fmt.Sprintf("A-%02d", i+1), SlotClass: model.SlotStandard, Status: status, Floor: 1}
		require.NoError(t, testDB.Create(&slot).Error)
	}

	w := doJSON(router, http.MethodGet, "/api/slots", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TotalSlots       int `json:"total_slots"`
		AvailableSlots   int `json:"available_slots"`
		OccupiedSlots    int `json:"occupied_slots"`
		MaintenanceSlots int `json:"maintenance_slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalSlots)
	assert.Equal(t, 2, resp.AvailableSlots)
	assert.Equal(t, 1, resp.OccupiedSlots)
	assert.Equal(t, 1, resp.MaintenanceSlots)
}

func TestGetAvailableSlotsRequiresAction(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/parkin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/parkin?action=available-slots", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetRevenueTotalsCompletedSessions(t *testing.T) {
	router, testDB := setupRouter(t)

	vehicle := model.Vehicle{NumberPlate: "KA01AB1234", VehicleClass: model.VehicleCar}
	require.NoError(t, testDB.Create(&vehicle).Error)
	slot := model.Slot{SlotNumber: "A-01", SlotClass: model.SlotStandard, Status: model.SlotAvailable, Floor: 1}
	require.NoError(t, testDB.Create(&slot).Error)

	entry := time.Now().UTC().Add(-3 * time.Hour)
	for i, charge := range []float64{50, 100} {
		exit := entry.Add(time.Duration(i+1) * time.Hour)
		minutes := (i + 1) * 60
		session := model.Session{
			ID: fmt.Sprintf("33333333-3333-3333-3333-33333333333%d", i), VehicleID: vehicle.ID, SlotID: slot.ID,
			Status: model.SessionCompleted, BillingType: model.BillingHourly,
			EntryTime: entry, ExitTime: &exit, DurationMinutes: &minutes, FinalCharge: &charge,
		}
		require.NoError(t, testDB.Create(&session).Error)
	}

	w := doJSON(router, http.MethodGet, "/api/revenue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Revenue      []revenueEntry `json:"revenue"`
		TotalRevenue float64        `json:"total_revenue"`
		Currency     string         `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Revenue, 2)
	assert.Equal(t, 150.0, resp.TotalRevenue)
	assert.Equal(t, "INR", resp.Currency)
}

func TestVAPIDPublicKeyEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-public-key")
}
