package models

// EnergyRecord power and accumulated consumption of one device.
// DailyConsumption is never reset.
type EnergyRecord struct {
	CurrentPower     float64 `json:"current_power"`     // W
	DailyConsumption float64 `json:"daily_consumption"` // kWh
}
