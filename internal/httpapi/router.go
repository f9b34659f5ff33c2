// Package httpapi serves the house state and controls over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/observability"
	"github.com/August1314/nicehouse/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// House operations the API exposes; *service.House satisfies it.
type House interface {
	Rooms() []models.Room
	RoomEnvironment(roomID string) (models.RoomEnvironment, bool)
	SetRoomTemperature(roomID string, celsius float64) error

	DeviceStates() []models.DeviceState
	DeviceState(deviceID string) (models.DeviceState, bool)
	SetDevicePower(deviceID string, on bool) (bool, error)
	ManualControl(roomID string, t models.DeviceType, on bool) []string
	Energy() service.EnergyReport

	Person() models.PersonStatus
	ChangePersonState(state models.PersonState, roomID string) error
	Vitals() models.VitalSigns
	Activity() map[string]models.ActivityData
	Safety() map[string]models.SafetyData
	SetSafety(roomID string, smoke, gas *float64) (models.SafetyData, error)

	RecentAlarms(n int) []models.AlarmRecord
	UnhandledAlarms() []models.AlarmRecord
	AllAlarms() []models.AlarmRecord
	AlarmMessage(rec models.AlarmRecord) string
	HandleAlarm(ctx context.Context, alarmID string) (models.AlarmRecord, error)
	TriggerAlarm(t models.AlarmType, roomID string) (*models.AlarmRecord, bool)
	ArchivedAlarms(ctx context.Context, types []models.AlarmType, limit int) ([]models.AlarmEvent, error)
	AlarmCounts(ctx context.Context, since time.Time) (map[models.AlarmType]int, error)

	AutoMode() bool
	SetAutoMode(enabled bool)
	Snapshot() models.Snapshot
}

// Router gorilla/mux routes over a House.
type Router struct {
	router  *mux.Router
	house   House
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRouter registers every route. metrics may be nil.
func NewRouter(house House, metrics *observability.Metrics, logger *zap.Logger) *Router {
	r := &Router{
		router:  mux.NewRouter(),
		house:   house,
		metrics: metrics,
		logger:  logger,
	}
	r.routes()
	return r
}

func (r *Router) handle(path string, h http.HandlerFunc, methods ...string) {
	r.router.Handle(path, r.metrics.WrapHandler(path, h)).Methods(methods...)
}

func (r *Router) routes() {
	r.router.HandleFunc("/health", r.Health).Methods(http.MethodGet)
	r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)

	r.handle("/api/v1/snapshot", r.GetSnapshot, http.MethodGet)

	r.handle("/api/v1/rooms", r.ListRooms, http.MethodGet)
	r.handle("/api/v1/rooms/{roomId}/environment", r.GetRoomEnvironment, http.MethodGet)
	r.handle("/api/v1/rooms/{roomId}/temperature", r.SetRoomTemperature, http.MethodPost)
	r.handle("/api/v1/rooms/{roomId}/devices/{type}/power", r.ManualControl, http.MethodPost)
	r.handle("/api/v1/rooms/{roomId}/safety", r.SetSafety, http.MethodPost)

	r.handle("/api/v1/devices", r.ListDevices, http.MethodGet)
	r.handle("/api/v1/devices/{deviceId}", r.GetDevice, http.MethodGet)
	r.handle("/api/v1/devices/{deviceId}/power", r.SetDevicePower, http.MethodPost)
	r.handle("/api/v1/energy", r.GetEnergy, http.MethodGet)

	r.handle("/api/v1/person", r.GetPerson, http.MethodGet)
	r.handle("/api/v1/person", r.ChangePerson, http.MethodPost)
	r.handle("/api/v1/vitals", r.GetVitals, http.MethodGet)
	r.handle("/api/v1/activity", r.GetActivity, http.MethodGet)
	r.handle("/api/v1/safety", r.GetSafety, http.MethodGet)

	r.handle("/api/v1/alarms", r.ListAlarms, http.MethodGet)
	r.handle("/api/v1/alarms", r.TriggerAlarm, http.MethodPost)
	r.handle("/api/v1/alarms/unhandled", r.ListUnhandledAlarms, http.MethodGet)
	r.handle("/api/v1/alarms/export", r.ExportAlarms, http.MethodGet)
	r.handle("/api/v1/alarms/history", r.ListArchivedAlarms, http.MethodGet)
	r.handle("/api/v1/alarms/stats", r.AlarmStats, http.MethodGet)
	r.handle("/api/v1/alarms/{id}/handle", r.HandleAlarm, http.MethodPost)

	r.handle("/api/v1/automode", r.GetAutoMode, http.MethodGet)
	r.handle("/api/v1/automode", r.SetAutoMode, http.MethodPost)
}

// Handler routes wrapped with panic recovery and access logging.
func (r *Router) Handler() http.Handler {
	stdLog := zap.NewStdLog(r.logger)
	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(stdLog),
		handlers.PrintRecoveryStack(true),
	)(r.router)
	return handlers.LoggingHandler(stdLog.Writer(), recovered)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// NewServer http.Server for addr serving router.
func NewServer(addr string, router *Router) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
