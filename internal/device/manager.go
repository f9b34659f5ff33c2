package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/August1314/nicehouse/internal/events"
	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/registry"

	"go.uber.org/zap"
)

// Manager owns the controllers built for registered devices.
type Manager struct {
	mu      sync.RWMutex
	factory *Factory
	meter   Meter
	devices map[string]Device
	order   []string
	changes events.Listeners[StateChange]
	logger  *zap.Logger
}

// NewManager creates a manager that builds through factory and meters through meter.
func NewManager(factory *Factory, meter Meter, logger *zap.Logger) *Manager {
	return &Manager{
		factory: factory,
		meter:   meter,
		devices: make(map[string]Device),
		logger:  logger,
	}
}

// Build creates controllers for infos. Types without a constructor are skipped.
func (m *Manager) Build(infos []models.Device) int {
	built := 0
	for _, info := range infos {
		d, err := m.factory.Build(info, m.meter)
		if err != nil {
			if errors.Is(err, ErrUnsupportedType) {
				m.logger.Debug("No controller for device type",
					zap.String("device_id", info.DeviceID),
					zap.String("device_type", string(info.DeviceType)),
				)
				continue
			}
			m.logger.Warn("Failed to build device controller",
				zap.String("device_id", info.DeviceID),
				zap.Error(err),
			)
			continue
		}
		if m.add(d) {
			built++
		}
	}
	m.logger.Info("Device controllers built", zap.Int("count", built))
	return built
}

func (m *Manager) add(d Device) bool {
	id := d.Info().DeviceID
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.devices[id]; exists {
		m.logger.Warn("Controller already built, later one ignored", zap.String("device_id", id))
		return false
	}
	if h, ok := d.(hookable); ok {
		h.setHook(m.emit)
	}
	m.devices[id] = d
	m.order = append(m.order, id)
	return true
}

func (m *Manager) emit(change StateChange) {
	m.logger.Info("Device state changed",
		zap.String("device_id", change.Device.DeviceID),
		zap.String("room_id", change.Device.RoomID),
		zap.Bool("on", change.On),
	)
	if err := m.changes.Notify(change); err != nil {
		m.logger.Warn("Device state listener failed",
			zap.String("device_id", change.Device.DeviceID),
			zap.Error(err),
		)
	}
}

// OnStateChange subscribes to device switches. Handlers run in subscription order.
func (m *Manager) OnStateChange(name string, h events.Handler[StateChange]) {
	m.changes.Subscribe(name, h)
}

// Get returns the controller for deviceID.
func (m *Manager) Get(deviceID string) (Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[deviceID]
	return d, ok
}

// All controllers in build order.
func (m *Manager) All() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Device, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.devices[id])
	}
	return out
}

// InRoom controllers in roomID of type t.
func (m *Manager) InRoom(roomID string, t models.DeviceType) []Device {
	var out []Device
	for _, d := range m.All() {
		info := d.Info()
		if info.RoomID == roomID && info.DeviceType == t {
			out = append(out, d)
		}
	}
	return out
}

// SetPower switches deviceID and reports whether its state changed.
func (m *Manager) SetPower(deviceID string, on bool) (bool, error) {
	d, ok := m.Get(deviceID)
	if !ok {
		return false, fmt.Errorf("%w: %s", registry.ErrUnknownDevice, deviceID)
	}
	if d.IsOn() == on {
		return false, nil
	}
	if on {
		d.TurnOn()
	} else {
		d.TurnOff()
	}
	return true, nil
}

// State describes d with optional energy figures.
func State(d Device, rec models.EnergyRecord) models.DeviceState {
	st := models.DeviceState{
		Device:           d.Info(),
		Status:           d.Status(),
		On:               d.IsOn(),
		CurrentPower:     rec.CurrentPower,
		DailyConsumption: rec.DailyConsumption,
	}
	if th, ok := d.(Thermostat); ok {
		target := th.TargetTemperature()
		st.TargetTemperature = &target
	}
	return st
}
