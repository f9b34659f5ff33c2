package models

// DeviceType device category
type DeviceType string

const (
	DeviceTypeAirConditioner DeviceType = "AirConditioner"
	DeviceTypeFreshAirSystem DeviceType = "FreshAirSystem"
	DeviceTypeAirPurifier    DeviceType = "AirPurifier"
	DeviceTypeFan            DeviceType = "Fan"
	DeviceTypeLight          DeviceType = "Light"
	DeviceTypeWindow         DeviceType = "Window"
	DeviceTypeSmokeSensor    DeviceType = "SmokeSensor"
	DeviceTypePm25Sensor     DeviceType = "Pm25Sensor"
	DeviceTypeHelpButton     DeviceType = "HelpButton"
	DeviceTypeOther          DeviceType = "Other"
)

var deviceTypes = []DeviceType{
	DeviceTypeAirConditioner,
	DeviceTypeFreshAirSystem,
	DeviceTypeAirPurifier,
	DeviceTypeFan,
	DeviceTypeLight,
	DeviceTypeWindow,
	DeviceTypeSmokeSensor,
	DeviceTypePm25Sensor,
	DeviceTypeHelpButton,
	DeviceTypeOther,
}

// ParseDeviceType matches s against the known device types.
func ParseDeviceType(s string) (DeviceType, bool) {
	for _, t := range deviceTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// DeviceStatus controller run state
type DeviceStatus string

const (
	DeviceStatusOff     DeviceStatus = "Off"
	DeviceStatusOn      DeviceStatus = "On"
	DeviceStatusRunning DeviceStatus = "Running"
	DeviceStatusError   DeviceStatus = "Error"
)

// Device static device descriptor
type Device struct {
	DeviceID   string     `json:"device_id"`
	DeviceType DeviceType `json:"device_type"`
	RoomID     string     `json:"room_id"`
}

// DeviceState runtime view of a device
type DeviceState struct {
	Device
	Status            DeviceStatus `json:"status"`
	On                bool         `json:"on"`
	TargetTemperature *float64     `json:"target_temperature,omitempty"`
	CurrentPower      float64      `json:"current_power"`
	DailyConsumption  float64      `json:"daily_consumption"`
}
