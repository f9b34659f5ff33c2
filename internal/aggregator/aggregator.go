// Package aggregator assembles the whole-house status snapshot.
package aggregator

import (
	"sync"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/models"
)

// RecentAlarmCount alarms included in a snapshot.
const RecentAlarmCount = 10

// Sources read access to every component the snapshot covers. Nil fields are left out.
type Sources struct {
	Rooms interface {
		All() []models.Room
	}
	Environment interface {
		TryGet(roomID string) (models.RoomEnvironment, bool)
	}
	Safety interface {
		TryGet(roomID string) (models.SafetyData, bool)
	}
	Activity interface {
		RoomActivity(roomID string) models.ActivityData
	}
	Devices interface {
		All() []device.Device
	}
	Energy interface {
		Record(deviceID string) (models.EnergyRecord, bool)
		Total() (float64, float64)
	}
	Person interface {
		Status() models.PersonStatus
	}
	Vitals interface {
		Current() models.VitalSigns
	}
	Alarms interface {
		Recent(n int) []models.AlarmRecord
		Unhandled() []models.AlarmRecord
	}
	AutoMode interface {
		AutoMode() bool
	}
}

// Aggregator builds snapshots and keeps the latest one.
type Aggregator struct {
	src   Sources
	clock clock.Clock

	mu     sync.RWMutex
	latest *models.Snapshot
}

// New aggregator over src.
func New(src Sources, clk clock.Clock) *Aggregator {
	return &Aggregator{src: src, clock: clk}
}

// Build assembles a fresh snapshot and stores it as the latest.
func (a *Aggregator) Build() models.Snapshot {
	snap := models.Snapshot{GeneratedAt: a.clock.Now()}

	byRoom := make(map[string][]models.DeviceState)
	if a.src.Devices != nil {
		for _, d := range a.src.Devices.All() {
			var rec models.EnergyRecord
			if a.src.Energy != nil {
				rec, _ = a.src.Energy.Record(d.Info().DeviceID)
			}
			roomID := d.Info().RoomID
			byRoom[roomID] = append(byRoom[roomID], device.State(d, rec))
		}
	}

	if a.src.Rooms != nil {
		for _, room := range a.src.Rooms.All() {
			rs := models.RoomSnapshot{Room: room, Devices: byRoom[room.RoomID]}
			if a.src.Environment != nil {
				rs.Environment, rs.HasData = a.src.Environment.TryGet(room.RoomID)
			}
			if a.src.Safety != nil {
				rs.Safety, _ = a.src.Safety.TryGet(room.RoomID)
			}
			if a.src.Activity != nil {
				rs.Activity = a.src.Activity.RoomActivity(room.RoomID)
			}
			snap.Rooms = append(snap.Rooms, rs)
		}
	}

	if a.src.Energy != nil {
		snap.TotalPower, snap.TotalEnergy = a.src.Energy.Total()
	}
	if a.src.Person != nil {
		snap.Person = a.src.Person.Status()
	}
	if a.src.Vitals != nil {
		snap.Vitals = a.src.Vitals.Current()
	}
	if a.src.Alarms != nil {
		snap.RecentAlarms = a.src.Alarms.Recent(RecentAlarmCount)
		snap.UnhandledAlarms = len(a.src.Alarms.Unhandled())
	}
	if a.src.AutoMode != nil {
		snap.AutoMode = a.src.AutoMode.AutoMode()
	}

	a.mu.Lock()
	a.latest = &snap
	a.mu.Unlock()
	return snap
}

// Latest last built snapshot; false before the first Build.
func (a *Aggregator) Latest() (models.Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return models.Snapshot{}, false
	}
	return *a.latest, true
}
