package environment

import (
	"math"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// Angular frequencies (rad/s) of the simulated waves.
const (
	temperatureFrequency = 0.1
	humidityFrequency    = 0.07
	pm25Frequency        = 0.09

	// PM10Ratio pm10 derived from pm25
	PM10Ratio = 1.2
)

// Wave one simulated metric.
type Wave struct {
	Enabled   bool    `json:"enabled"`
	Base      float64 `json:"base"`
	Amplitude float64 `json:"amplitude"`
}

func (w Wave) at(seconds, frequency float64) float64 {
	return w.Base + math.Sin(seconds*frequency)*w.Amplitude
}

// RoomProfile simulation parameters for one room.
type RoomProfile struct {
	RoomID      string `json:"room_id"`
	Temperature Wave   `json:"temperature"`
	Humidity    Wave   `json:"humidity"`
	PM25        Wave   `json:"pm25"`
}

func profile(roomID string, tBase, tAmp, hBase, hAmp, pBase, pAmp float64) RoomProfile {
	return RoomProfile{
		RoomID:      roomID,
		Temperature: Wave{Enabled: true, Base: tBase, Amplitude: tAmp},
		Humidity:    Wave{Enabled: true, Base: hBase, Amplitude: hAmp},
		PM25:        Wave{Enabled: true, Base: pBase, Amplitude: pAmp},
	}
}

// DefaultProfiles profiles for the stock house.
func DefaultProfiles() []RoomProfile {
	return []RoomProfile{
		profile("LivingRoom01", 25, 1.5, 50, 8, 35, 15),
		profile("Kitchen01", 26.5, 2, 55, 10, 45, 20),
		profile("Study01", 24, 1, 45, 6, 30, 10),
		profile("Bathroom01", 23, 1.5, 60, 12, 25, 8),
		profile("BedRoom01", 22, 1, 50, 8, 20, 8),
		profile("Corridor01", 23.5, 1, 48, 6, 28, 10),
	}
}

// FallbackProfile profile for a room without its own entry.
func FallbackProfile(roomID string) RoomProfile {
	return profile(roomID, 24, 2, 50, 10, 35, 20)
}

// ProfilesFor picks the stock profile for each room id, or the fallback.
func ProfilesFor(roomIDs []string) []RoomProfile {
	stock := make(map[string]RoomProfile)
	for _, p := range DefaultProfiles() {
		stock[p.RoomID] = p
	}
	out := make([]RoomProfile, 0, len(roomIDs))
	for _, id := range roomIDs {
		if p, ok := stock[id]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, FallbackProfile(id))
	}
	return out
}

// Simulator writes sinusoidal readings into the store.
type Simulator struct {
	store    *Store
	profiles []RoomProfile
	clock    clock.Clock
	start    time.Time
	logger   *zap.Logger
}

// NewSimulator starts the waves at the clock's current time.
func NewSimulator(store *Store, profiles []RoomProfile, clk clock.Clock, logger *zap.Logger) *Simulator {
	valid := make([]RoomProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.RoomID == "" {
			logger.Warn("Environment profile without room_id skipped")
			continue
		}
		valid = append(valid, p)
	}
	return &Simulator{
		store:    store,
		profiles: valid,
		clock:    clk,
		start:    clk.Now(),
		logger:   logger,
	}
}

// BaseTemperatures room id -> base temperature of enabled temperature waves.
func (s *Simulator) BaseTemperatures() map[string]float64 {
	out := make(map[string]float64, len(s.profiles))
	for _, p := range s.profiles {
		out[p.RoomID] = p.Temperature.Base
	}
	return out
}

// Tick recomputes every profiled room.
func (s *Simulator) Tick() {
	t := s.clock.Now().Sub(s.start).Seconds()
	for _, p := range s.profiles {
		p := p
		s.store.Update(p.RoomID, func(env *models.RoomEnvironment) {
			if p.Temperature.Enabled {
				env.Temperature = p.Temperature.at(t, temperatureFrequency)
			}
			if p.Humidity.Enabled {
				env.Humidity = p.Humidity.at(t, humidityFrequency)
			}
			if p.PM25.Enabled {
				env.PM25 = math.Max(0, p.PM25.at(t, pm25Frequency))
				env.PM10 = env.PM25 * PM10Ratio
			}
		})
	}
}
