package device

import (
	"sync"

	"github.com/August1314/nicehouse/internal/models"
)

// DefaultTargetTemperature AC setpoint before anyone changes it.
const DefaultTargetTemperature = 24.0

// AirConditioner runs toward a target temperature.
type AirConditioner struct {
	base
	targetMu sync.RWMutex
	target   float64
}

// NewAirConditioner builds an AC controller.
func NewAirConditioner(info models.Device, meter Meter) Device {
	return &AirConditioner{
		base:   newBase(info, meter, models.DeviceStatusRunning),
		target: DefaultTargetTemperature,
	}
}

// TargetTemperature current setpoint in Celsius.
func (a *AirConditioner) TargetTemperature() float64 {
	a.targetMu.RLock()
	defer a.targetMu.RUnlock()
	return a.target
}

// SetTargetTemperature changes the setpoint; it does not switch the AC on.
func (a *AirConditioner) SetTargetTemperature(celsius float64) {
	a.targetMu.Lock()
	a.target = celsius
	a.targetMu.Unlock()
}

// AirPurifier filters particulates.
type AirPurifier struct{ base }

// NewAirPurifier builds a purifier; running status is Running.
func NewAirPurifier(info models.Device, meter Meter) Device {
	return &AirPurifier{base: newBase(info, meter, models.DeviceStatusRunning)}
}

// FreshAirSystem exchanges indoor air.
type FreshAirSystem struct{ base }

// NewFreshAirSystem builds a fresh air controller.
func NewFreshAirSystem(info models.Device, meter Meter) Device {
	return &FreshAirSystem{base: newBase(info, meter, models.DeviceStatusRunning)}
}

// Fan cools a room by a fixed rate while running.
type Fan struct{ base }

// NewFan builds a fan controller.
func NewFan(info models.Device, meter Meter) Device {
	return &Fan{base: newBase(info, meter, models.DeviceStatusRunning)}
}

// Light reports On rather than Running.
type Light struct{ base }

// NewLight builds a light; running status is On.
func NewLight(info models.Device, meter Meter) Device {
	return &Light{base: newBase(info, meter, models.DeviceStatusOn)}
}

// Toggle flips the light.
func (l *Light) Toggle() {
	if l.IsOn() {
		l.TurnOff()
		return
	}
	l.TurnOn()
}

// Window on means open.
type Window struct{ base }

// NewWindow builds a window actuator; running status is On.
func NewWindow(info models.Device, meter Meter) Device {
	return &Window{base: newBase(info, meter, models.DeviceStatusOn)}
}
