package models

import "time"

// AlarmType alarm category
type AlarmType string

const (
	AlarmTypeSmoke          AlarmType = "Smoke"
	AlarmTypeGasLeak        AlarmType = "GasLeak"
	AlarmTypeFall           AlarmType = "Fall"
	AlarmTypeLongSitting    AlarmType = "LongSitting"
	AlarmTypeLongBathing    AlarmType = "LongBathing"
	AlarmTypeHealthAbnormal AlarmType = "HealthAbnormal"
	AlarmTypeEmergencyCall  AlarmType = "EmergencyCall"
)

// AlarmTypes lists every alarm type.
var AlarmTypes = []AlarmType{
	AlarmTypeSmoke,
	AlarmTypeGasLeak,
	AlarmTypeFall,
	AlarmTypeLongSitting,
	AlarmTypeLongBathing,
	AlarmTypeHealthAbnormal,
	AlarmTypeEmergencyCall,
}

// ParseAlarmType matches s against the known alarm types.
func ParseAlarmType(s string) (AlarmType, bool) {
	for _, t := range AlarmTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Alarm levels
const (
	AlarmLevelAlert   = "ALERT"
	AlarmLevelWarning = "WARNING"
)

// Level Fall and EmergencyCall are ALERT, the rest WARNING.
func (t AlarmType) Level() string {
	switch t {
	case AlarmTypeFall, AlarmTypeEmergencyCall:
		return AlarmLevelAlert
	default:
		return AlarmLevelWarning
	}
}

// DisplayName human readable label
func (t AlarmType) DisplayName() string {
	switch t {
	case AlarmTypeLongSitting:
		return "Long Sitting"
	case AlarmTypeLongBathing:
		return "Long Bathing"
	case AlarmTypeFall:
		return "Fall/OutOfBed"
	case AlarmTypeGasLeak:
		return "Gas Leak"
	case AlarmTypeHealthAbnormal:
		return "Health Abnormal"
	case AlarmTypeEmergencyCall:
		return "Emergency Call"
	default:
		return string(t)
	}
}

// AlarmRecord one alarm. Only Handled changes after creation.
type AlarmRecord struct {
	ID      string    `json:"id"`
	Type    AlarmType `json:"type"`
	RoomID  string    `json:"room_id"`
	Time    time.Time `json:"time"`
	Handled bool      `json:"handled"`
}

// AlarmEvent wire form of an alarm for notifiers and sinks.
type AlarmEvent struct {
	ID          string    `json:"id"`
	Type        AlarmType `json:"type"`
	Level       string    `json:"level"`
	RoomID      string    `json:"room_id"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
	Handled     bool      `json:"handled"`
}
