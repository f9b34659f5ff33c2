package registry

import (
	"errors"
	"sync"

	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// ErrUnknownDevice no device with the requested id.
var ErrUnknownDevice = errors.New("unknown device")

// DeviceRegistry devices by id with a per-room index.
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices map[string]models.Device
	order   []string
	byRoom  map[string][]string
	logger  *zap.Logger
}

// NewDeviceRegistry creates an empty registry.
func NewDeviceRegistry(logger *zap.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		devices: make(map[string]models.Device),
		byRoom:  make(map[string][]string),
		logger:  logger,
	}
}

// Register adds device. An empty or duplicate id is logged and skipped.
func (r *DeviceRegistry) Register(device models.Device) bool {
	if device.DeviceID == "" {
		r.logger.Warn("Device has empty device_id, skipped",
			zap.String("device_type", string(device.DeviceType)),
			zap.String("room_id", device.RoomID),
		)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[device.DeviceID]; exists {
		r.logger.Warn("Duplicate device_id, later entry ignored",
			zap.String("device_id", device.DeviceID),
		)
		return false
	}

	r.devices[device.DeviceID] = device
	r.order = append(r.order, device.DeviceID)
	if device.RoomID != "" {
		r.byRoom[device.RoomID] = append(r.byRoom[device.RoomID], device.DeviceID)
	}
	return true
}

// RegisterAll registers devices and returns how many were accepted.
func (r *DeviceRegistry) RegisterAll(devices []models.Device) int {
	n := 0
	for _, d := range devices {
		if r.Register(d) {
			n++
		}
	}
	r.logger.Info("Devices registered",
		zap.Int("accepted", n),
		zap.Int("scanned", len(devices)),
	)
	return n
}

// Lookup returns the device with id.
func (r *DeviceRegistry) Lookup(deviceID string) (models.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[deviceID]
	return d, ok
}

// ListByRoom devices in roomID; empty for an unknown room.
func (r *DeviceRegistry) ListByRoom(roomID string) []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byRoom[roomID]
	out := make([]models.Device, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.devices[id])
	}
	return out
}

// ListByRoomAndType devices of type t in roomID.
func (r *DeviceRegistry) ListByRoomAndType(roomID string, t models.DeviceType) []models.Device {
	var out []models.Device
	for _, d := range r.ListByRoom(roomID) {
		if d.DeviceType == t {
			out = append(out, d)
		}
	}
	return out
}

// All devices in registration order.
func (r *DeviceRegistry) All() []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// Len number of devices.
func (r *DeviceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
