package models

import "time"

// RoomSnapshot everything known about one room
type RoomSnapshot struct {
	Room        Room            `json:"room"`
	Environment RoomEnvironment `json:"environment"`
	HasData     bool            `json:"has_data"`
	Safety      SafetyData      `json:"safety"`
	Activity    ActivityData    `json:"activity"`
	Devices     []DeviceState   `json:"devices"`
}

// Snapshot whole-house status
type Snapshot struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	AutoMode        bool           `json:"auto_mode"`
	Rooms           []RoomSnapshot `json:"rooms"`
	Person          PersonStatus   `json:"person"`
	Vitals          VitalSigns     `json:"vitals"`
	TotalPower      float64        `json:"total_power"`
	TotalEnergy     float64        `json:"total_energy"`
	RecentAlarms    []AlarmRecord  `json:"recent_alarms"`
	UnhandledAlarms int            `json:"unhandled_alarms"`
}
