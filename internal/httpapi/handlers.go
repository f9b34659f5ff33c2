package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/August1314/nicehouse/internal/alarm"
	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/registry"
	"github.com/August1314/nicehouse/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (r *Router) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrUnknownRoom),
		errors.Is(err, registry.ErrUnknownDevice),
		errors.Is(err, alarm.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoArchive):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		r.logger.Warn("Request failed", zap.Error(err))
	}
	respondError(w, status, err.Error())
}

func (r *Router) Health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (r *Router) GetSnapshot(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.Snapshot())
}

func (r *Router) ListRooms(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.Rooms())
}

func (r *Router) GetRoomEnvironment(w http.ResponseWriter, req *http.Request) {
	roomID := mux.Vars(req)["roomId"]
	env, ok := r.house.RoomEnvironment(roomID)
	if !ok {
		respondError(w, http.StatusNotFound, "no environment data for room "+roomID)
		return
	}
	respond(w, http.StatusOK, models.EnvironmentReading{
		RoomID:    roomID,
		Timestamp: time.Now().UnixMilli(),
		Values:    env,
	})
}

type temperatureRequest struct {
	Temperature *float64 `json:"temperature"`
}

func (r *Router) SetRoomTemperature(w http.ResponseWriter, req *http.Request) {
	var body temperatureRequest
	if err := decodeBody(req, &body); err != nil || body.Temperature == nil {
		respondError(w, http.StatusBadRequest, "temperature is required")
		return
	}
	roomID := mux.Vars(req)["roomId"]
	if err := r.house.SetRoomTemperature(roomID, *body.Temperature); err != nil {
		r.fail(w, err)
		return
	}
	env, _ := r.house.RoomEnvironment(roomID)
	respond(w, http.StatusOK, env)
}

type powerRequest struct {
	On *bool `json:"on"`
}

func decodePower(req *http.Request) (bool, error) {
	var body powerRequest
	if err := decodeBody(req, &body); err != nil {
		return false, fmt.Errorf("invalid body: %w", err)
	}
	if body.On == nil {
		return false, errors.New("on is required")
	}
	return *body.On, nil
}

func (r *Router) ManualControl(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	t, ok := models.ParseDeviceType(vars["type"])
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown device type "+vars["type"])
		return
	}
	on, err := decodePower(req)
	if err != nil {
		r.fail(w, err)
		return
	}
	switched := r.house.ManualControl(vars["roomId"], t, on)
	if switched == nil {
		switched = []string{}
	}
	respond(w, http.StatusOK, map[string]any{"switched": switched})
}

type safetyRequest struct {
	SmokeLevel *float64 `json:"smoke_level"`
	GasLevel   *float64 `json:"gas_level"`
}

func (r *Router) SetSafety(w http.ResponseWriter, req *http.Request) {
	var body safetyRequest
	if err := decodeBody(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	data, err := r.house.SetSafety(mux.Vars(req)["roomId"], body.SmokeLevel, body.GasLevel)
	if err != nil {
		r.fail(w, err)
		return
	}
	respond(w, http.StatusOK, data)
}

func (r *Router) ListDevices(w http.ResponseWriter, req *http.Request) {
	states := r.house.DeviceStates()
	if roomID := req.URL.Query().Get("room_id"); roomID != "" {
		filtered := states[:0]
		for _, st := range states {
			if st.RoomID == roomID {
				filtered = append(filtered, st)
			}
		}
		states = filtered
	}
	respond(w, http.StatusOK, states)
}

func (r *Router) GetDevice(w http.ResponseWriter, req *http.Request) {
	deviceID := mux.Vars(req)["deviceId"]
	st, ok := r.house.DeviceState(deviceID)
	if !ok {
		r.fail(w, fmt.Errorf("%w: %s", registry.ErrUnknownDevice, deviceID))
		return
	}
	respond(w, http.StatusOK, st)
}

func (r *Router) SetDevicePower(w http.ResponseWriter, req *http.Request) {
	on, err := decodePower(req)
	if err != nil {
		r.fail(w, err)
		return
	}
	deviceID := mux.Vars(req)["deviceId"]
	changed, err := r.house.SetDevicePower(deviceID, on)
	if err != nil {
		r.fail(w, err)
		return
	}
	st, _ := r.house.DeviceState(deviceID)
	respond(w, http.StatusOK, map[string]any{"changed": changed, "device": st})
}

func (r *Router) GetEnergy(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.Energy())
}

func (r *Router) GetPerson(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.Person())
}

type personRequest struct {
	State  string `json:"state"`
	RoomID string `json:"room_id"`
}

func (r *Router) ChangePerson(w http.ResponseWriter, req *http.Request) {
	var body personRequest
	if err := decodeBody(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	state, ok := models.ParsePersonState(body.State)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown person state "+body.State)
		return
	}
	if err := r.house.ChangePersonState(state, body.RoomID); err != nil {
		r.fail(w, err)
		return
	}
	respond(w, http.StatusOK, r.house.Person())
}

func (r *Router) GetVitals(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.Vitals())
}

func (r *Router) GetActivity(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.Activity())
}

func (r *Router) GetSafety(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.Safety())
}

func (r *Router) ListAlarms(w http.ResponseWriter, req *http.Request) {
	n := queryLimit(req.URL.Query().Get("n"), 20)
	respond(w, http.StatusOK, r.house.RecentAlarms(n))
}

func (r *Router) ListUnhandledAlarms(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, r.house.UnhandledAlarms())
}

type alarmRequest struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

func (r *Router) TriggerAlarm(w http.ResponseWriter, req *http.Request) {
	var body alarmRequest
	if err := decodeBody(req, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	t, ok := models.ParseAlarmType(body.Type)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown alarm type "+body.Type)
		return
	}
	rec, raised := r.house.TriggerAlarm(t, body.RoomID)
	if !raised {
		respondError(w, http.StatusTooManyRequests, "alarm suppressed by cooldown")
		return
	}
	respond(w, http.StatusCreated, rec)
}

func (r *Router) HandleAlarm(w http.ResponseWriter, req *http.Request) {
	rec, err := r.house.HandleAlarm(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.fail(w, err)
		return
	}
	respond(w, http.StatusOK, rec)
}

func (r *Router) ExportAlarms(w http.ResponseWriter, _ *http.Request) {
	data, err := GenerateAlarmExport(r.house.AllAlarms(), r.house.AlarmMessage)
	if err != nil {
		r.logger.Error("Failed to export alarms", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to export alarms")
		return
	}
	filename := fmt.Sprintf("alarms_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListArchivedAlarms ?limit=50&type=Fall,Smoke
func (r *Router) ListArchivedAlarms(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	var types []models.AlarmType
	if raw := q.Get("type"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			t, ok := models.ParseAlarmType(strings.TrimSpace(s))
			if !ok {
				respondError(w, http.StatusBadRequest, "unknown alarm type "+s)
				return
			}
			types = append(types, t)
		}
	}
	events, err := r.house.ArchivedAlarms(req.Context(), types, queryLimit(q.Get("limit"), 50))
	if err != nil {
		r.fail(w, err)
		return
	}
	respond(w, http.StatusOK, events)
}

// AlarmStats archived counts per type over the last ?window= (default 24h).
func (r *Router) AlarmStats(w http.ResponseWriter, req *http.Request) {
	window := 24 * time.Hour
	if raw := req.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "invalid window "+raw)
			return
		}
		window = d
	}
	counts, err := r.house.AlarmCounts(req.Context(), time.Now().Add(-window))
	if err != nil {
		r.fail(w, err)
		return
	}
	respond(w, http.StatusOK, counts)
}

func (r *Router) GetAutoMode(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]bool{"enabled": r.house.AutoMode()})
}

type autoModeRequest struct {
	Enabled *bool `json:"enabled"`
}

func (r *Router) SetAutoMode(w http.ResponseWriter, req *http.Request) {
	var body autoModeRequest
	if err := decodeBody(req, &body); err != nil || body.Enabled == nil {
		respondError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	r.house.SetAutoMode(*body.Enabled)
	respond(w, http.StatusOK, map[string]bool{"enabled": r.house.AutoMode()})
}
