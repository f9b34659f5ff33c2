package registry

import (
	"sync"

	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// RoomRegistry rooms by id, in registration order.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]models.Room
	order  []string
	logger *zap.Logger
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry(logger *zap.Logger) *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]models.Room),
		logger: logger,
	}
}

// Register adds room. An empty or duplicate id is logged and skipped.
func (r *RoomRegistry) Register(room models.Room) bool {
	if room.RoomID == "" {
		r.logger.Warn("Room has empty room_id, skipped",
			zap.String("display_name", room.DisplayName),
		)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.RoomID]; exists {
		r.logger.Warn("Duplicate room_id, later entry ignored",
			zap.String("room_id", room.RoomID),
		)
		return false
	}

	r.rooms[room.RoomID] = room
	r.order = append(r.order, room.RoomID)
	return true
}

// RegisterAll registers rooms and returns how many were accepted.
func (r *RoomRegistry) RegisterAll(rooms []models.Room) int {
	n := 0
	for _, room := range rooms {
		if r.Register(room) {
			n++
		}
	}
	r.logger.Info("Rooms registered",
		zap.Int("accepted", n),
		zap.Int("scanned", len(rooms)),
	)
	return n
}

// Lookup returns the room with id.
func (r *RoomRegistry) Lookup(roomID string) (models.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// All rooms in registration order.
func (r *RoomRegistry) All() []models.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Room, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rooms[id])
	}
	return out
}

// IDs room ids in registration order.
func (r *RoomRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len number of rooms.
func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
