// Package safety tracks smoke and gas levels per room.
package safety

import (
	"math"
	"math/rand"
	"sync"

	"github.com/August1314/nicehouse/internal/models"
)

// Level bounds for manual overrides.
const (
	MinLevel = 0.0
	MaxLevel = 100.0
)

// Random-walk step widths per tick.
const (
	smokeStep = 0.5
	gasStep   = 0.2
)

// RoomLister rooms to simulate.
type RoomLister interface {
	IDs() []string
}

// Store per-room smoke and gas readings.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*models.SafetyData
	rng   *rand.Rand
}

// NewStore rng drives the random walk.
func NewStore(rng *rand.Rand) *Store {
	return &Store{
		rooms: make(map[string]*models.SafetyData),
		rng:   rng,
	}
}

func (s *Store) getOrCreateLocked(roomID string) *models.SafetyData {
	d, ok := s.rooms[roomID]
	if !ok {
		d = &models.SafetyData{}
		s.rooms[roomID] = d
	}
	return d
}

// GetOrCreate returns the readings for roomID, creating zero ones if absent.
func (s *Store) GetOrCreate(roomID string) models.SafetyData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreateLocked(roomID)
}

// TryGet never creates.
func (s *Store) TryGet(roomID string) (models.SafetyData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.rooms[roomID]
	if !ok {
		return models.SafetyData{}, false
	}
	return *d, true
}

// All copies every room's readings.
func (s *Store) All() map[string]models.SafetyData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.SafetyData, len(s.rooms))
	for id, d := range s.rooms {
		out[id] = *d
	}
	return out
}

func clamp(v float64) float64 {
	return math.Min(MaxLevel, math.Max(MinLevel, v))
}

// SetSmokeLevel clamps to 0..100.
func (s *Store) SetSmokeLevel(roomID string, level float64) models.SafetyData {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.getOrCreateLocked(roomID)
	d.SmokeLevel = clamp(level)
	return *d
}

// SetGasLevel clamps to 0..100.
func (s *Store) SetGasLevel(roomID string, level float64) models.SafetyData {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.getOrCreateLocked(roomID)
	d.GasLevel = clamp(level)
	return *d
}

// Tick moves every listed room's readings by a small random step, never below zero.
func (s *Store) Tick(rooms RoomLister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, roomID := range rooms.IDs() {
		d := s.getOrCreateLocked(roomID)
		d.SmokeLevel = math.Max(0, d.SmokeLevel+(s.rng.Float64()*2-1)*smokeStep)
		d.GasLevel = math.Max(0, d.GasLevel+(s.rng.Float64()*2-1)*gasStep)
	}
}
