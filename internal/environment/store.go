// Package environment holds per-room readings and the processes that move them.
package environment

import (
	"sort"
	"sync"

	"github.com/August1314/nicehouse/internal/models"
)

// Store per-room environment records, created lazily.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*models.RoomEnvironment
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{rooms: make(map[string]*models.RoomEnvironment)}
}

// GetOrCreate returns the record for roomID, creating a zero one if absent.
func (s *Store) GetOrCreate(roomID string) models.RoomEnvironment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreateLocked(roomID)
}

func (s *Store) getOrCreateLocked(roomID string) *models.RoomEnvironment {
	env, ok := s.rooms[roomID]
	if !ok {
		env = &models.RoomEnvironment{}
		s.rooms[roomID] = env
	}
	return env
}

// TryGet returns the record for roomID without creating it.
func (s *Store) TryGet(roomID string) (models.RoomEnvironment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.rooms[roomID]
	if !ok {
		return models.RoomEnvironment{}, false
	}
	return *env, true
}

// Update applies fn to the record for roomID (created if absent) and returns the result.
func (s *Store) Update(roomID string, fn func(env *models.RoomEnvironment)) models.RoomEnvironment {
	s.mu.Lock()
	defer s.mu.Unlock()
	env := s.getOrCreateLocked(roomID)
	fn(env)
	return *env
}

// All copies every record.
func (s *Store) All() map[string]models.RoomEnvironment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.RoomEnvironment, len(s.rooms))
	for id, env := range s.rooms {
		out[id] = *env
	}
	return out
}

// RoomIDs sorted ids with a record.
func (s *Store) RoomIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
