package models

// SleepStage 0 awake, 1 light, 2 deep
type SleepStage int

const (
	SleepStageAwake SleepStage = iota
	SleepStageLight
	SleepStageDeep
)

func (s SleepStage) String() string {
	switch s {
	case SleepStageLight:
		return "Light"
	case SleepStageDeep:
		return "Deep"
	default:
		return "Awake"
	}
}

// VitalSigns simulated vitals
type VitalSigns struct {
	HeartRate       int        `json:"heart_rate"`       // bpm
	RespirationRate int        `json:"respiration_rate"` // breaths/min
	BodyMovement    float64    `json:"body_movement"`    // 0..1
	SleepStage      SleepStage `json:"sleep_stage"`
}
