package person

import (
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// SimulatorConfig auto-switch settings.
type SimulatorConfig struct {
	AutoSwitch bool
	Interval   time.Duration
	States     []models.PersonState
	Rooms      []string
}

// DefaultSimulatorConfig auto-switch off, 10s, four states over four rooms.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		AutoSwitch: false,
		Interval:   10 * time.Second,
		States: []models.PersonState{
			models.PersonStateIdle,
			models.PersonStateWalking,
			models.PersonStateSitting,
			models.PersonStateSleeping,
		},
		Rooms: []string{"LivingRoom01", "BedRoom01", "Kitchen01", "BathRoom01"},
	}
}

// Simulator drives the state machine through a fixed sequence.
type Simulator struct {
	mu        sync.Mutex
	cfg       SimulatorConfig
	machine   *StateMachine
	clock     clock.Clock
	last      time.Time
	stateIdx  int
	roomIdx   int
	currentID string
	logger    *zap.Logger
}

// NewSimulator wraps machine.
func NewSimulator(cfg SimulatorConfig, machine *StateMachine, clk clock.Clock, logger *zap.Logger) *Simulator {
	return &Simulator{
		cfg:       cfg,
		machine:   machine,
		clock:     clk,
		last:      clk.Now(),
		currentID: machine.RoomID(),
		logger:    logger,
	}
}

// SetAutoSwitch enables or disables the timed sequence.
func (s *Simulator) SetAutoSwitch(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.AutoSwitch = enabled
	s.last = s.clock.Now()
}

// AutoSwitch reports whether the timed sequence runs.
func (s *Simulator) AutoSwitch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.AutoSwitch
}

// SetCurrentRoom room used by ChangeState when none is given.
func (s *Simulator) SetCurrentRoom(roomID string) {
	s.mu.Lock()
	s.currentID = roomID
	s.mu.Unlock()
}

// Tick advances to the next state and room once Interval has elapsed.
func (s *Simulator) Tick() error {
	s.mu.Lock()
	if !s.cfg.AutoSwitch || len(s.cfg.States) == 0 {
		s.mu.Unlock()
		return nil
	}
	now := s.clock.Now()
	if now.Sub(s.last) < s.cfg.Interval {
		s.mu.Unlock()
		return nil
	}
	s.last = now
	s.stateIdx = (s.stateIdx + 1) % len(s.cfg.States)
	state := s.cfg.States[s.stateIdx]
	if len(s.cfg.Rooms) > 0 {
		s.roomIdx = (s.roomIdx + 1) % len(s.cfg.Rooms)
		s.currentID = s.cfg.Rooms[s.roomIdx]
	}
	roomID := s.currentID
	s.mu.Unlock()

	s.logger.Debug("Person auto switch",
		zap.String("state", string(state)),
		zap.String("room_id", roomID),
	)
	return s.machine.ChangeState(state, roomID)
}

// ChangeState moves the person; an empty roomID keeps the simulator's current room.
func (s *Simulator) ChangeState(state models.PersonState, roomID string) error {
	s.mu.Lock()
	if roomID == "" {
		roomID = s.currentID
	} else {
		s.currentID = roomID
	}
	s.mu.Unlock()
	return s.machine.ChangeState(state, roomID)
}

// Reset returns to Idle in the current room and restarts the sequence.
func (s *Simulator) Reset() error {
	s.mu.Lock()
	s.stateIdx = 0
	s.last = s.clock.Now()
	roomID := s.currentID
	s.mu.Unlock()
	return s.machine.ChangeState(models.PersonStateIdle, roomID)
}
