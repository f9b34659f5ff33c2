// Package activity counts room visits and stay time of the occupant.
package activity

import (
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/person"
)

// Tracker per-room visit statistics.
type Tracker struct {
	mu        sync.RWMutex
	rooms     map[string]*models.ActivityData
	current   string
	enteredAt time.Time
	clock     clock.Clock
}

// NewTracker starts with the occupant outside every room.
func NewTracker(clk clock.Clock) *Tracker {
	return &Tracker{
		rooms: make(map[string]*models.ActivityData),
		clock: clk,
	}
}

func (t *Tracker) roomLocked(roomID string) *models.ActivityData {
	d, ok := t.rooms[roomID]
	if !ok {
		d = &models.ActivityData{}
		t.rooms[roomID] = d
	}
	return d
}

// OnPersonChanged closes the stay in the previous room and opens one in the new room.
// Every state change counts as a visit, also when the room stays the same.
func (t *Tracker) OnPersonChanged(tr person.Transition) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := tr.At
	if now.IsZero() {
		now = t.clock.Now()
	}
	if t.current != "" && t.current != tr.RoomID {
		t.roomLocked(t.current).TotalStayTime += now.Sub(t.enteredAt)
	}
	if tr.RoomID == "" {
		return nil
	}
	if t.current != tr.RoomID {
		t.enteredAt = now
	}
	t.current = tr.RoomID
	t.roomLocked(tr.RoomID).VisitCount++
	return nil
}

// Enter sets the starting room without counting a visit.
func (t *Tracker) Enter(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = roomID
	t.enteredAt = t.clock.Now()
}

// RoomActivity stats for roomID, including the open stay. Unknown rooms give zero stats.
func (t *Tracker) RoomActivity(roomID string) models.ActivityData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out models.ActivityData
	if d, ok := t.rooms[roomID]; ok {
		out = *d
	}
	if roomID == t.current && roomID != "" {
		out.TotalStayTime += t.clock.Now().Sub(t.enteredAt)
	}
	return out
}

// All stats for every room seen so far.
func (t *Tracker) All() map[string]models.ActivityData {
	t.mu.RLock()
	ids := make([]string, 0, len(t.rooms)+1)
	for id := range t.rooms {
		ids = append(ids, id)
	}
	if _, ok := t.rooms[t.current]; !ok && t.current != "" {
		ids = append(ids, t.current)
	}
	t.mu.RUnlock()

	out := make(map[string]models.ActivityData, len(ids))
	for _, id := range ids {
		out[id] = t.RoomActivity(id)
	}
	return out
}

// CurrentRoom room the occupant is in.
func (t *Tracker) CurrentRoom() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// ResetAll clears the statistics; the current room restarts its stay now.
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms = make(map[string]*models.ActivityData)
	t.enteredAt = t.clock.Now()
}
