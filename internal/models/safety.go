package models

// SafetyData smoke and gas concentration, both 0..100
type SafetyData struct {
	SmokeLevel float64 `json:"smoke_level"`
	GasLevel   float64 `json:"gas_level"`
}
