package policy

import (
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"
)

type lastAlarm struct {
	at     time.Time
	roomID string
}

// CooldownGate suppresses an alarm type repeating in the same room within the cooldown.
type CooldownGate struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[models.AlarmType]lastAlarm
	clock    clock.Clock
}

// NewCooldownGate creates an open gate.
func NewCooldownGate(cooldown time.Duration, clk clock.Clock) *CooldownGate {
	return &CooldownGate{
		cooldown: cooldown,
		last:     make(map[models.AlarmType]lastAlarm),
		clock:    clk,
	}
}

// Allow reports whether t may fire in roomID now. A true result records the occurrence.
func (g *CooldownGate) Allow(t models.AlarmType, roomID string) bool {
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.last[t]; ok {
		if now.Sub(prev.at) < g.cooldown && prev.roomID == roomID {
			return false
		}
	}
	g.last[t] = lastAlarm{at: now, roomID: roomID}
	return true
}

// Reset forgets every occurrence.
func (g *CooldownGate) Reset() {
	g.mu.Lock()
	g.last = make(map[models.AlarmType]lastAlarm)
	g.mu.Unlock()
}
