package environment

import (
	"math"
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// InfluenceConfig device and heat-transfer rates.
type InfluenceConfig struct {
	ACRate             float64 // per second, proportional to (temp - target)
	FanCoolingRate     float64 // °C per second
	HeatTransferRate   float64 // per second, proportional to room difference
	EnableHeatTransfer bool
	InitialTemperature float64
}

// DefaultInfluenceConfig stock rates.
func DefaultInfluenceConfig() InfluenceConfig {
	return InfluenceConfig{
		ACRate:             0.5,
		FanCoolingRate:     0.1,
		HeatTransferRate:   0.05,
		EnableHeatTransfer: true,
		InitialTemperature: 24,
	}
}

// minApplyDelta smaller changes are dropped.
const minApplyDelta = 0.001

// RoomLister room ids to evaluate.
type RoomLister interface {
	IDs() []string
}

// DeviceFinder controllers of a type in a room.
type DeviceFinder interface {
	InRoom(roomID string, t models.DeviceType) []device.Device
}

// Influence nudges room temperatures for running ACs and fans and for heat flow between rooms.
type Influence struct {
	cfg     InfluenceConfig
	store   *Store
	rooms   RoomLister
	devices DeviceFinder
	logger  *zap.Logger

	mu          sync.Mutex
	initialized bool
	lastDelta   map[string]float64
	lastDt      time.Duration
}

// NewInfluence creates an evaluator over store.
func NewInfluence(cfg InfluenceConfig, store *Store, rooms RoomLister, devices DeviceFinder, logger *zap.Logger) *Influence {
	return &Influence{
		cfg:       cfg,
		store:     store,
		rooms:     rooms,
		devices:   devices,
		logger:    logger,
		lastDelta: make(map[string]float64),
	}
}

// Initialize seeds rooms reading ~0 °C with their base temperature, or the configured initial one.
func (in *Influence) Initialize(baseTemperatures map[string]float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.initializeLocked(baseTemperatures)
}

func (in *Influence) initializeLocked(baseTemperatures map[string]float64) {
	for _, roomID := range in.rooms.IDs() {
		in.store.Update(roomID, func(env *models.RoomEnvironment) {
			if math.Abs(env.Temperature) >= 0.1 {
				return
			}
			initTemp := in.cfg.InitialTemperature
			if base, ok := baseTemperatures[roomID]; ok {
				initTemp = base
			}
			env.Temperature = initTemp
			in.logger.Debug("Room temperature initialized",
				zap.String("room_id", roomID),
				zap.Float64("temperature", initTemp),
			)
		})
	}
	in.initialized = true
}

// Tick applies dt of influence. Rooms are processed in order, each seeing earlier rooms' updates.
func (in *Influence) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.initialized {
		in.initializeLocked(nil)
	}
	in.lastDt = dt
	seconds := dt.Seconds()

	roomIDs := in.rooms.IDs()
	for _, roomID := range roomIDs {
		env, ok := in.store.TryGet(roomID)
		if !ok {
			continue
		}

		change := in.deviceInfluence(roomID, env.Temperature, seconds)
		if in.cfg.EnableHeatTransfer {
			change += in.heatTransfer(roomID, roomIDs, env.Temperature, seconds)
		}

		if math.Abs(change) > minApplyDelta {
			in.store.Update(roomID, func(e *models.RoomEnvironment) {
				e.Temperature += change
			})
			in.lastDelta[roomID] = change
		} else {
			in.lastDelta[roomID] = 0
		}
	}
}

func (in *Influence) deviceInfluence(roomID string, temp, seconds float64) float64 {
	change := 0.0
	for _, d := range in.devices.InRoom(roomID, models.DeviceTypeAirConditioner) {
		th, ok := d.(device.Thermostat)
		if !ok || !th.IsOn() {
			continue
		}
		change += -(temp - th.TargetTemperature()) * in.cfg.ACRate * seconds
	}
	for _, d := range in.devices.InRoom(roomID, models.DeviceTypeFan) {
		if d.IsOn() {
			change += -in.cfg.FanCoolingRate * seconds
		}
	}
	return change
}

// heatTransfer is O(rooms) per room; room counts are small.
func (in *Influence) heatTransfer(roomID string, roomIDs []string, temp, seconds float64) float64 {
	total := 0.0
	for _, other := range roomIDs {
		if other == roomID {
			continue
		}
		otherEnv, ok := in.store.TryGet(other)
		if !ok {
			continue
		}
		total += (otherEnv.Temperature - temp) * in.cfg.HeatTransferRate * seconds
	}
	return total
}

// SetRoomTemperature overrides the temperature of roomID.
func (in *Influence) SetRoomTemperature(roomID string, celsius float64) {
	in.store.Update(roomID, func(env *models.RoomEnvironment) {
		env.Temperature = celsius
	})
	in.mu.Lock()
	in.lastDelta[roomID] = 0
	in.mu.Unlock()
	in.logger.Info("Room temperature set manually",
		zap.String("room_id", roomID),
		zap.Float64("temperature", celsius),
	)
}

// TemperatureChangeRate °C per second applied to roomID on the last tick.
func (in *Influence) TemperatureChangeRate(roomID string) float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.lastDt <= 0 {
		return 0
	}
	return in.lastDelta[roomID] / in.lastDt.Seconds()
}
