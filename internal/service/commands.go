package service

import (
	"context"
	"fmt"
	"time"

	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/notify"
	"github.com/August1314/nicehouse/internal/observability"

	"go.uber.org/zap"
)

var _ notify.Commands = (*House)(nil)

// SetDevicePower switches one device by id.
func (h *House) SetDevicePower(deviceID string, on bool) (bool, error) {
	return h.controllers.SetPower(deviceID, on)
}

// ManualControl switches every device of type t in roomID.
func (h *House) ManualControl(roomID string, t models.DeviceType, on bool) []string {
	return h.threshold.ManualControlDevice(roomID, t, on)
}

// ChangePersonState moves the occupant. An empty roomID keeps the current room.
func (h *House) ChangePersonState(state models.PersonState, roomID string) error {
	if roomID != "" {
		if _, ok := h.rooms.Lookup(roomID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
		}
	}
	return h.personSim.ChangeState(state, roomID)
}

// SetAutoMode enables or disables the threshold policy.
func (h *House) SetAutoMode(enabled bool) {
	h.threshold.SetAutoMode(enabled)
	h.logger.Info("Auto mode changed", zap.Bool("enabled", enabled))
}

// AutoMode whether the threshold policy runs.
func (h *House) AutoMode() bool {
	return h.threshold.AutoMode()
}

// TriggerAlarm raises t through the monitoring cooldown gate.
// An empty roomID uses the occupant's room. HealthAbnormal goes through the health monitor.
func (h *House) TriggerAlarm(t models.AlarmType, roomID string) (*models.AlarmRecord, bool) {
	if t == models.AlarmTypeHealthAbnormal && roomID == "" {
		return h.healthMon.TriggerManually("manual trigger")
	}
	if roomID == "" {
		roomID = h.person.RoomID()
	}
	return h.monitoring.TriggerAlarmManually(t, roomID)
}

// Rooms registered rooms in registration order.
func (h *House) Rooms() []models.Room {
	return h.rooms.All()
}

// RoomEnvironment latest reading of roomID.
func (h *House) RoomEnvironment(roomID string) (models.RoomEnvironment, bool) {
	return h.environment.TryGet(roomID)
}

// SetRoomTemperature overrides the temperature of roomID.
func (h *House) SetRoomTemperature(roomID string, celsius float64) error {
	if _, ok := h.rooms.Lookup(roomID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	h.influence.SetRoomTemperature(roomID, celsius)
	return nil
}

// DeviceStates every controller with its energy figures.
func (h *House) DeviceStates() []models.DeviceState {
	all := h.controllers.All()
	out := make([]models.DeviceState, 0, len(all))
	for _, d := range all {
		rec, _ := h.energy.Record(d.Info().DeviceID)
		out = append(out, device.State(d, rec))
	}
	return out
}

// DeviceState one controller by id.
func (h *House) DeviceState(deviceID string) (models.DeviceState, bool) {
	d, ok := h.controllers.Get(deviceID)
	if !ok {
		return models.DeviceState{}, false
	}
	rec, _ := h.energy.Record(deviceID)
	return device.State(d, rec), true
}

// EnergyReport per-device records and house totals.
type EnergyReport struct {
	Devices     map[string]models.EnergyRecord `json:"devices"`
	TotalPower  float64                        `json:"total_power"`
	TotalEnergy float64                        `json:"total_energy"`
}

// Energy current energy report.
func (h *House) Energy() EnergyReport {
	power, consumption := h.energy.Total()
	return EnergyReport{
		Devices:     h.energy.All(),
		TotalPower:  power,
		TotalEnergy: consumption,
	}
}

// Person occupant status.
func (h *House) Person() models.PersonStatus {
	h.person.Tick()
	return h.person.Status()
}

// Vitals latest simulated vitals.
func (h *House) Vitals() models.VitalSigns {
	return h.vitals.Current()
}

// RecentAlarms newest first.
func (h *House) RecentAlarms(n int) []models.AlarmRecord {
	return h.alarms.Recent(n)
}

// UnhandledAlarms newest first.
func (h *House) UnhandledAlarms() []models.AlarmRecord {
	return h.alarms.Unhandled()
}

// AllAlarms every retained alarm, newest first.
func (h *House) AllAlarms() []models.AlarmRecord {
	return h.alarms.Recent(h.alarms.Len())
}

// AlarmMessage human readable alarm text.
func (h *House) AlarmMessage(rec models.AlarmRecord) string {
	return h.responder.Message(rec)
}

// HandleAlarm marks alarmID handled in the ledger and, when attached, in the archive.
// Archive errors are logged only.
func (h *House) HandleAlarm(ctx context.Context, alarmID string) (models.AlarmRecord, error) {
	rec, err := h.alarms.MarkHandledByID(alarmID)
	if err != nil {
		return models.AlarmRecord{}, err
	}
	if h.archive != nil {
		if err := h.archive.MarkHandled(ctx, alarmID, h.clock.Now()); err != nil {
			h.metrics.SinkError("postgres")
			h.logger.Warn("Failed to mark archived alarm handled",
				zap.String("alarm_id", alarmID),
				zap.Error(err),
			)
		}
	}
	return rec, nil
}

// ArchivedAlarms newest archived alarms, optionally filtered by type.
func (h *House) ArchivedAlarms(ctx context.Context, types []models.AlarmType, limit int) ([]models.AlarmEvent, error) {
	if h.archive == nil {
		return nil, ErrNoArchive
	}
	if len(types) > 0 {
		return h.archive.ListByTypes(ctx, types, limit)
	}
	return h.archive.ListRecent(ctx, limit)
}

// AlarmCounts archived alarms per type since the given time.
func (h *House) AlarmCounts(ctx context.Context, since time.Time) (map[models.AlarmType]int, error) {
	if h.archive == nil {
		return nil, ErrNoArchive
	}
	return h.archive.CountByType(ctx, since)
}

// Activity per-room visit counters.
func (h *House) Activity() map[string]models.ActivityData {
	return h.activity.All()
}

// Safety per-room smoke and gas levels.
func (h *House) Safety() map[string]models.SafetyData {
	return h.safety.All()
}

// SetSafety overrides the smoke and/or gas level of roomID.
func (h *House) SetSafety(roomID string, smoke, gas *float64) (models.SafetyData, error) {
	if _, ok := h.rooms.Lookup(roomID); !ok {
		return models.SafetyData{}, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	data := h.safety.GetOrCreate(roomID)
	if smoke != nil {
		data = h.safety.SetSmokeLevel(roomID, *smoke)
	}
	if gas != nil {
		data = h.safety.SetGasLevel(roomID, *gas)
	}
	return data, nil
}

// Snapshot latest snapshot, building one if none exists yet.
func (h *House) Snapshot() models.Snapshot {
	if snap, ok := h.aggregator.Latest(); ok {
		return snap
	}
	return h.aggregator.Build()
}

// Metrics collectors shared with the HTTP API.
func (h *House) Metrics() *observability.Metrics {
	return h.metrics
}
