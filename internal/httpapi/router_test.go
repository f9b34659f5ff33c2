package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/config"
	"github.com/August1314/nicehouse/internal/layout"
	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/observability"
	"github.com/August1314/nicehouse/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (*Router, *service.House) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Thresholds.PM25 = 75
	cfg.Thresholds.PM10 = 150
	cfg.Thresholds.TempHigh = 28
	cfg.Thresholds.TempLow = 18
	cfg.Thresholds.Target = 24
	cfg.Thresholds.HeatingTarget = 22
	cfg.Monitoring.LongSitting = 30 * time.Minute
	cfg.Monitoring.LongBathing = 20 * time.Minute
	cfg.Monitoring.Cooldown = time.Minute
	cfg.AlarmMaxRecords = 100

	clk := clock.NewManual(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	metrics := observability.NewMetrics(nil)
	house := service.New(cfg, clk, metrics, zap.NewNop())
	require.NoError(t, house.RegisterAll(layout.Default()))
	return NewRouter(house, metrics, zap.NewNop()), house
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var out Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := do(t, r.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, decode[map[string]any](t, rec).Code)
	assert.Equal(t, "success", decode[map[string]any](t, rec).Type)
}

func TestRouter_ListRooms(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Room](t, rec).Result, 6)
}

func TestRouter_GetRoomEnvironment(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/v1/rooms/Kitchen01/environment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kitchen01", decode[models.EnvironmentReading](t, rec).Result.RoomID)

	rec = do(t, r, http.MethodGet, "/api/v1/rooms/Attic01/environment", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[any](t, rec).Code)
	assert.Equal(t, "error", decode[any](t, rec).Type)
}

func TestRouter_SetRoomTemperature(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/rooms/Study01/temperature", map[string]float64{"temperature": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.0, decode[models.RoomEnvironment](t, rec).Result.Temperature)

	rec = do(t, r, http.MethodPost, "/api/v1/rooms/Study01/temperature", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/v1/rooms/Attic01/temperature", map[string]float64{"temperature": 30})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SetDevicePower(t *testing.T) {
	r, house := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/devices/AC_LivingRoom01/power", map[string]bool{"on": true})
	require.Equal(t, http.StatusOK, rec.Code)
	st, ok := house.DeviceState("AC_LivingRoom01")
	require.True(t, ok)
	assert.True(t, st.On)

	rec = do(t, r, http.MethodPost, "/api/v1/devices/Nope/power", map[string]bool{"on": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/v1/devices/AC_LivingRoom01/power", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/devices/AC_LivingRoom01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.DeviceState](t, rec).Result.On)

	rec = do(t, r, http.MethodGet, "/api/v1/devices?room_id=Study01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, d := range decode[[]models.DeviceState](t, rec).Result {
		assert.Equal(t, "Study01", d.RoomID)
	}
}

func TestRouter_ManualControl(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/rooms/BedRoom01/devices/AirPurifier/power", map[string]bool{"on": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Purifier_BedRoom01"}, decode[map[string]any](t, rec).Result["switched"])

	rec = do(t, r, http.MethodPost, "/api/v1/rooms/BedRoom01/devices/Toaster/power", map[string]bool{"on": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Person(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/person", map[string]string{"state": "Sitting", "room_id": "Study01"})
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[models.PersonStatus](t, rec).Result
	assert.Equal(t, models.PersonStateSitting, status.State)
	assert.Equal(t, "Study01", status.CurrentRoomID)

	rec = do(t, r, http.MethodPost, "/api/v1/person", map[string]string{"state": "Dancing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]models.ActivityData](t, rec).Result["Study01"].VisitCount)
}

func TestRouter_Alarms(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/alarms", map[string]string{"type": "EmergencyCall", "room_id": "Bathroom01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.AlarmRecord](t, rec).Result
	assert.Equal(t, models.AlarmTypeEmergencyCall, created.Type)

	rec = do(t, r, http.MethodPost, "/api/v1/alarms", map[string]string{"type": "EmergencyCall", "room_id": "Bathroom01"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/alarms/unhandled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.AlarmRecord](t, rec).Result, 1)

	rec = do(t, r, http.MethodPost, "/api/v1/alarms/"+created.ID+"/handle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.AlarmRecord](t, rec).Result.Handled)

	rec = do(t, r, http.MethodPost, "/api/v1/alarms/missing/handle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/alarms?n=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.AlarmRecord](t, rec).Result, 1)

	rec = do(t, r, http.MethodGet, "/api/v1/alarms?n=-3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.AlarmRecord](t, rec).Result, 1)

	rec = do(t, r, http.MethodGet, "/api/v1/alarms/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_ExportAlarms(t *testing.T) {
	r, house := newTestRouter(t)
	house.TriggerAlarm(models.AlarmTypeFall, "BedRoom01")

	rec := do(t, r, http.MethodGet, "/api/v1/alarms/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="alarms_`))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(alarmSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, AlarmExportHeader, rows[0])
	assert.Equal(t, "Fall", rows[1][1])
	assert.Equal(t, "Fall/OutOfBed - Room: Bedroom", rows[1][4])
}

func TestRouter_AutoMode(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/automode", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec).Result["enabled"])

	rec = do(t, r, http.MethodGet, "/api/v1/automode", nil)
	assert.True(t, decode[map[string]bool](t, rec).Result["enabled"])

	rec = do(t, r, http.MethodPost, "/api/v1/automode", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Safety(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/rooms/Kitchen01/safety", map[string]float64{"gas_level": 42})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42.0, decode[models.SafetyData](t, rec).Result.GasLevel)

	rec = do(t, r, http.MethodGet, "/api/v1/safety", nil)
	assert.Equal(t, 42.0, decode[map[string]models.SafetyData](t, rec).Result["Kitchen01"].GasLevel)
}

func TestRouter_SnapshotAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)
	h := r.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.Snapshot](t, rec).Result.Rooms, 6)

	rec = do(t, h, http.MethodGet, "/api/v1/energy", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{route="/api/v1/snapshot",status="200"} 1`)
}
