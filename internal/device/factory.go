package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/August1314/nicehouse/internal/models"
)

// ErrUnsupportedType no constructor is registered for the device type.
var ErrUnsupportedType = errors.New("unsupported device type")

// Constructor builds the controller for one device.
type Constructor func(info models.Device, meter Meter) Device

// Factory maps device types to constructors.
type Factory struct {
	mu           sync.RWMutex
	constructors map[models.DeviceType]Constructor
}

// NewFactory returns a factory with every built-in kind registered.
// Sensors and help buttons have no controller.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[models.DeviceType]Constructor)}
	f.Register(models.DeviceTypeAirConditioner, NewAirConditioner)
	f.Register(models.DeviceTypeAirPurifier, NewAirPurifier)
	f.Register(models.DeviceTypeFreshAirSystem, NewFreshAirSystem)
	f.Register(models.DeviceTypeFan, NewFan)
	f.Register(models.DeviceTypeLight, NewLight)
	f.Register(models.DeviceTypeWindow, NewWindow)
	return f
}

// Register installs or replaces the constructor for t.
func (f *Factory) Register(t models.DeviceType, c Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[t] = c
}

// Supports reports whether t has a constructor.
func (f *Factory) Supports(t models.DeviceType) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.constructors[t]
	return ok
}

// Build constructs the controller for info.
func (f *Factory) Build(info models.Device, meter Meter) (Device, error) {
	f.mu.RLock()
	c, ok := f.constructors[info.DeviceType]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (device %s)", ErrUnsupportedType, info.DeviceType, info.DeviceID)
	}
	return c(info, meter), nil
}
