// Package person tracks the simulated occupant.
package person

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/events"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/qmuntal/stateless"
	"go.uber.org/zap"
)

// Occupant starting point.
const (
	InitialState = models.PersonStateIdle
	InitialRoom  = "LivingRoom01"
)

// Transition one ChangeState call as seen by observers.
type Transition struct {
	From     models.PersonState
	To       models.PersonState
	FromRoom string
	RoomID   string
	At       time.Time
}

// StateMachine occupant state. Any state may follow any other, itself included.
type StateMachine struct {
	mu         sync.Mutex
	fsm        *stateless.StateMachine
	roomID     string
	stateStart time.Time
	duration   time.Duration

	clock     clock.Clock
	listeners events.Listeners[Transition]
	logger    *zap.Logger
}

// NewStateMachine starts Idle in LivingRoom01.
func NewStateMachine(clk clock.Clock, logger *zap.Logger) *StateMachine {
	fsm := stateless.NewStateMachine(InitialState)
	// The trigger is the destination state.
	for _, from := range models.PersonStates {
		cfg := fsm.Configure(from)
		for _, to := range models.PersonStates {
			if to == from {
				cfg.PermitReentry(to)
				continue
			}
			cfg.Permit(to, to)
		}
	}
	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.Debug("Person state machine transitioned",
			zap.Any("source", t.Source),
			zap.Any("destination", t.Destination),
		)
	})

	return &StateMachine{
		fsm:        fsm,
		roomID:     InitialRoom,
		stateStart: clk.Now(),
		clock:      clk,
		logger:     logger,
	}
}

// Subscribe adds an observer. Observers run in subscription order after each ChangeState.
func (m *StateMachine) Subscribe(name string, h events.Handler[Transition]) {
	m.listeners.Subscribe(name, h)
}

// ChangeState sets state and room and restarts the duration timer.
// Observer errors are returned joined once every observer has run.
func (m *StateMachine) ChangeState(state models.PersonState, roomID string) error {
	m.mu.Lock()
	from := m.currentLocked()
	if err := m.fsm.Fire(state); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("change person state to %s: %w", state, err)
	}
	tr := Transition{
		From:     from,
		To:       state,
		FromRoom: m.roomID,
		RoomID:   roomID,
		At:       m.clock.Now(),
	}
	m.roomID = roomID
	m.stateStart = tr.At
	m.duration = 0
	m.mu.Unlock()

	m.logger.Info("Person state changed",
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("room_id", roomID),
	)
	return m.listeners.Notify(tr)
}

// Tick refreshes StateDuration from the clock.
func (m *StateMachine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = m.clock.Now().Sub(m.stateStart)
}

// Status copy of the current status.
func (m *StateMachine) Status() models.PersonStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.PersonStatus{
		State:         m.currentLocked(),
		CurrentRoomID: m.roomID,
		StateDuration: m.duration,
	}
}

// State current state.
func (m *StateMachine) State() models.PersonState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

// RoomID current room.
func (m *StateMachine) RoomID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *StateMachine) currentLocked() models.PersonState {
	return m.fsm.MustState().(models.PersonState)
}
