// Package health simulates occupant vitals and watches them for sustained anomalies.
package health

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"
)

// PersonSource current occupant status.
type PersonSource interface {
	Status() models.PersonStatus
}

// InitialVitals values before the first tick.
var InitialVitals = models.VitalSigns{
	HeartRate:       72,
	RespirationRate: 16,
	BodyMovement:    0.1,
	SleepStage:      models.SleepStageAwake,
}

// Simulator produces vitals from sine waves and the person state.
type Simulator struct {
	mu      sync.RWMutex
	current models.VitalSigns
	person  PersonSource
	rng     *rand.Rand
	clock   clock.Clock
	start   time.Time
}

// NewSimulator person may be nil; rng must not be.
func NewSimulator(person PersonSource, rng *rand.Rand, clk clock.Clock) *Simulator {
	return &Simulator{
		current: InitialVitals,
		person:  person,
		rng:     rng,
		clock:   clk,
		start:   clk.Now(),
	}
}

// Current copy of the latest vitals.
func (s *Simulator) Current() models.VitalSigns {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set overrides the vitals until the next tick.
func (s *Simulator) Set(v models.VitalSigns) {
	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
}

func (s *Simulator) spread(width float64) float64 {
	return (s.rng.Float64()*2 - 1) * width
}

// Tick recomputes every vital.
func (s *Simulator) Tick() models.VitalSigns {
	t := s.clock.Now().Sub(s.start).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	v := models.VitalSigns{
		HeartRate:       int(math.Round(72 + math.Sin(t*0.1)*10)),
		RespirationRate: int(math.Round(16 + math.Sin(t*0.15)*4)),
		SleepStage:      models.SleepStageAwake,
	}

	if s.person == nil {
		v.BodyMovement = 0.3 + math.Sin(t*0.2)*0.2
	} else {
		state := s.person.Status().State
		switch state {
		case models.PersonStateWalking:
			v.BodyMovement = 0.8 + s.spread(0.1)
		case models.PersonStateSitting:
			v.BodyMovement = 0.2 + s.spread(0.1)
		case models.PersonStateSleeping:
			v.BodyMovement = 0.05 + s.spread(0.02)
		case models.PersonStateFallen:
			v.BodyMovement = 0.9 + s.spread(0.1)
		default:
			v.BodyMovement = 0.3 + s.spread(0.1)
		}
		if state == models.PersonStateSleeping {
			if s.rng.Float64() > 0.5 {
				v.SleepStage = models.SleepStageLight
			} else {
				v.SleepStage = models.SleepStageDeep
			}
		}
	}

	s.current = v
	return v
}
