// Package policy holds the automation rules that act on devices and raise alarms.
package policy

import (
	"sync"

	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// Thresholds environment limits.
type Thresholds struct {
	PM25          float64 `json:"pm25"`
	PM10          float64 `json:"pm10"`
	TempHigh      float64 `json:"temp_high"`
	TempLow       float64 `json:"temp_low"`
	Target        float64 `json:"target"`
	HeatingTarget float64 `json:"heating_target"`
	HumidityHigh  float64 `json:"humidity_high"`
	HumidityLow   float64 `json:"humidity_low"`
}

// DefaultThresholds pm25 75, pm10 150, cool above 28 to 24, heat below 18 to 22, humidity 30-70.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PM25:          75,
		PM10:          150,
		TempHigh:      28,
		TempLow:       18,
		Target:        24,
		HeatingTarget: 22,
		HumidityHigh:  70,
		HumidityLow:   30,
	}
}

// RoomLister ids of rooms to check.
type RoomLister interface {
	IDs() []string
}

// EnvironmentReader non-creating room lookup.
type EnvironmentReader interface {
	TryGet(roomID string) (models.RoomEnvironment, bool)
}

// DeviceFinder controllers by room and type.
type DeviceFinder interface {
	InRoom(roomID string, t models.DeviceType) []device.Device
}

// AlarmSink appends alarms.
type AlarmSink interface {
	Add(t models.AlarmType, roomID string) *models.AlarmRecord
}

// RoomOutcome what one room check did.
type RoomOutcome struct {
	RoomID             string
	Activated          []string
	SmokeAlarm         bool
	HumidityOutOfRange bool
	HasReading         bool
}

// Threshold turns devices on when a room leaves its limits. It never turns them off.
type Threshold struct {
	mu         sync.RWMutex
	thresholds Thresholds
	autoMode   bool

	rooms   RoomLister
	env     EnvironmentReader
	devices DeviceFinder
	alarms  AlarmSink
	logger  *zap.Logger
}

// NewThreshold starts in auto mode.
func NewThreshold(th Thresholds, rooms RoomLister, env EnvironmentReader, devices DeviceFinder, alarms AlarmSink, logger *zap.Logger) *Threshold {
	return &Threshold{
		thresholds: th,
		autoMode:   true,
		rooms:      rooms,
		env:        env,
		devices:    devices,
		alarms:     alarms,
		logger:     logger,
	}
}

// SetAutoMode enables or disables Tick.
func (p *Threshold) SetAutoMode(enabled bool) {
	p.mu.Lock()
	p.autoMode = enabled
	p.mu.Unlock()
	p.logger.Info("Auto mode changed", zap.Bool("enabled", enabled))
}

// AutoMode reports whether Tick acts.
func (p *Threshold) AutoMode() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoMode
}

// Thresholds current limits.
func (p *Threshold) Thresholds() Thresholds {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.thresholds
}

// SetThresholds replaces the limits.
func (p *Threshold) SetThresholds(th Thresholds) {
	p.mu.Lock()
	p.thresholds = th
	p.mu.Unlock()
}

// Tick checks every room once. It does nothing outside auto mode.
func (p *Threshold) Tick() []RoomOutcome {
	if !p.AutoMode() {
		return nil
	}
	var outcomes []RoomOutcome
	for _, roomID := range p.rooms.IDs() {
		out := p.CheckRoom(roomID)
		if out.HasReading {
			outcomes = append(outcomes, out)
		}
	}
	return outcomes
}

// CheckRoom applies the limits to one room. Rooms without a reading are skipped.
func (p *Threshold) CheckRoom(roomID string) RoomOutcome {
	out := RoomOutcome{RoomID: roomID}
	env, ok := p.env.TryGet(roomID)
	if !ok {
		return out
	}
	out.HasReading = true
	th := p.Thresholds()

	if env.PM25 > th.PM25 || env.PM10 > th.PM10 {
		out.Activated = append(out.Activated, p.turnOnAll(roomID, models.DeviceTypeAirPurifier)...)
		out.Activated = append(out.Activated, p.turnOnAll(roomID, models.DeviceTypeFreshAirSystem)...)
		if p.alarms != nil {
			p.alarms.Add(models.AlarmTypeSmoke, roomID)
			out.SmokeAlarm = true
		}
		p.logger.Info("Air quality over threshold",
			zap.String("room_id", roomID),
			zap.Float64("pm25", env.PM25),
			zap.Float64("pm10", env.PM10),
			zap.Strings("activated", out.Activated),
		)
	}

	switch {
	case env.Temperature > th.TempHigh:
		out.Activated = append(out.Activated, p.startAC(roomID, th.Target, "cooling")...)
	case env.Temperature < th.TempLow:
		out.Activated = append(out.Activated, p.startAC(roomID, th.HeatingTarget, "heating")...)
	}

	if env.Humidity > th.HumidityHigh || env.Humidity < th.HumidityLow {
		out.HumidityOutOfRange = true
		p.logger.Debug("Humidity control needed",
			zap.String("room_id", roomID),
			zap.Float64("humidity", env.Humidity),
		)
	}
	return out
}

func (p *Threshold) turnOnAll(roomID string, t models.DeviceType) []string {
	var ids []string
	for _, d := range p.devices.InRoom(roomID, t) {
		if d.IsOn() {
			continue
		}
		d.TurnOn()
		ids = append(ids, d.Info().DeviceID)
	}
	return ids
}

func (p *Threshold) startAC(roomID string, target float64, mode string) []string {
	var ids []string
	for _, d := range p.devices.InRoom(roomID, models.DeviceTypeAirConditioner) {
		if d.IsOn() {
			continue
		}
		d.TurnOn()
		if th, ok := d.(device.Thermostat); ok {
			th.SetTargetTemperature(target)
		}
		ids = append(ids, d.Info().DeviceID)
		p.logger.Info("Air conditioner started",
			zap.String("room_id", roomID),
			zap.String("device_id", d.Info().DeviceID),
			zap.String("mode", mode),
			zap.Float64("target", target),
		)
	}
	return ids
}

// ManualControlDevice switches every device of type t in roomID. It returns the ids switched.
func (p *Threshold) ManualControlDevice(roomID string, t models.DeviceType, on bool) []string {
	var ids []string
	for _, d := range p.devices.InRoom(roomID, t) {
		if d.IsOn() == on {
			continue
		}
		if on {
			d.TurnOn()
		} else {
			d.TurnOff()
		}
		ids = append(ids, d.Info().DeviceID)
	}
	p.logger.Info("Manual device control",
		zap.String("room_id", roomID),
		zap.String("device_type", string(t)),
		zap.Bool("on", on),
		zap.Int("switched", len(ids)),
	)
	return ids
}
