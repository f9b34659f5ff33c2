// Package device holds the controllable device kinds and the controllers that drive them.
package device

import (
	"sync"

	"github.com/August1314/nicehouse/internal/models"
)

// Meter receives consumption start/stop for a device id.
type Meter interface {
	StartConsume(deviceID string)
	StopConsume(deviceID string)
}

// Device is one controllable unit.
type Device interface {
	Info() models.Device
	TurnOn()
	TurnOff()
	IsOn() bool
	Status() models.DeviceStatus
}

// Thermostat devices with a target temperature.
type Thermostat interface {
	Device
	TargetTemperature() float64
	SetTargetTemperature(celsius float64)
}

// StateChange is emitted when a device actually switches.
type StateChange struct {
	Device models.Device
	On     bool
	Status models.DeviceStatus
}

type changeHook func(StateChange)

// base implements the on/off contract shared by every kind.
// runStatus is the status a device reports while on.
type base struct {
	mu        sync.RWMutex
	info      models.Device
	status    models.DeviceStatus
	runStatus models.DeviceStatus
	meter     Meter
	hook      changeHook
}

func newBase(info models.Device, meter Meter, runStatus models.DeviceStatus) base {
	return base{
		info:      info,
		status:    models.DeviceStatusOff,
		runStatus: runStatus,
		meter:     meter,
	}
}

// Info static descriptor.
func (b *base) Info() models.Device { return b.info }

func (b *base) setHook(h changeHook) {
	b.mu.Lock()
	b.hook = h
	b.mu.Unlock()
}

// TurnOn is a no-op when already on.
func (b *base) TurnOn() {
	b.mu.Lock()
	if b.status == models.DeviceStatusOn || b.status == models.DeviceStatusRunning {
		b.mu.Unlock()
		return
	}
	b.status = b.runStatus
	status, hook := b.status, b.hook
	b.mu.Unlock()

	if b.meter != nil {
		b.meter.StartConsume(b.info.DeviceID)
	}
	if hook != nil {
		hook(StateChange{Device: b.info, On: true, Status: status})
	}
}

// TurnOff is a no-op when already off.
func (b *base) TurnOff() {
	b.mu.Lock()
	if b.status == models.DeviceStatusOff {
		b.mu.Unlock()
		return
	}
	b.status = models.DeviceStatusOff
	hook := b.hook
	b.mu.Unlock()

	if b.meter != nil {
		b.meter.StopConsume(b.info.DeviceID)
	}
	if hook != nil {
		hook(StateChange{Device: b.info, On: false, Status: models.DeviceStatusOff})
	}
}

// IsOn reports On or Running.
func (b *base) IsOn() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status == models.DeviceStatusOn || b.status == models.DeviceStatusRunning
}

// Status current run state.
func (b *base) Status() models.DeviceStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// hookable lets the Manager attach its change hook to any kind built on base.
type hookable interface {
	setHook(changeHook)
}
