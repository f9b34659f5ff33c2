package models

import "time"

// PersonState occupant behaviour state
type PersonState string

const (
	PersonStateIdle     PersonState = "Idle"
	PersonStateWalking  PersonState = "Walking"
	PersonStateSitting  PersonState = "Sitting"
	PersonStateBathing  PersonState = "Bathing"
	PersonStateSleeping PersonState = "Sleeping"
	PersonStateFallen   PersonState = "Fallen"
	PersonStateOutOfBed PersonState = "OutOfBed"
)

// PersonStates lists every state.
var PersonStates = []PersonState{
	PersonStateIdle,
	PersonStateWalking,
	PersonStateSitting,
	PersonStateBathing,
	PersonStateSleeping,
	PersonStateFallen,
	PersonStateOutOfBed,
}

// ParsePersonState matches s against the known states.
func ParsePersonState(s string) (PersonState, bool) {
	for _, st := range PersonStates {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// PersonStatus occupant snapshot
type PersonStatus struct {
	State         PersonState   `json:"state"`
	CurrentRoomID string        `json:"current_room_id"`
	StateDuration time.Duration `json:"state_duration"`
}
