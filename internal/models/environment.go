package models

// RoomEnvironment latest readings for one room
type RoomEnvironment struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	PM25        float64 `json:"pm25"`        // µg/m³
	PM10        float64 `json:"pm10"`        // µg/m³
}

// EnvironmentReading room environment with its room id and sample time
type EnvironmentReading struct {
	RoomID    string          `json:"room_id"`
	Timestamp int64           `json:"timestamp"`
	Values    RoomEnvironment `json:"values"`
}
