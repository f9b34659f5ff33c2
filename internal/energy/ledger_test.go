package energy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLedger_Tick_OneHourAtOneKilowatt(t *testing.T) {
	ledger := NewLedger(map[string]float64{"AC01": 1000}, zap.NewNop())

	ledger.StartConsume("AC01")
	for i := 0; i < 3600; i++ {
		ledger.Tick(time.Second)
	}

	rec, ok := ledger.Record("AC01")
	require.True(t, ok)
	assert.InDelta(t, 1.0, rec.DailyConsumption, 1e-9)
	assert.Equal(t, 1000.0, rec.CurrentPower)

	ledger.StopConsume("AC01")
	rec, _ = ledger.Record("AC01")
	assert.Equal(t, 0.0, rec.CurrentPower)
	assert.InDelta(t, 1.0, rec.DailyConsumption, 1e-9)
	assert.False(t, ledger.IsActive("AC01"))
}

func TestLedger_Tick_UnconfiguredDeviceDrawsNothing(t *testing.T) {
	ledger := NewLedger(nil, zap.NewNop())

	ledger.StartConsume("Lamp")
	ledger.Tick(time.Hour)

	rec, ok := ledger.Record("Lamp")
	require.True(t, ok)
	assert.Equal(t, 0.0, rec.CurrentPower)
	assert.Equal(t, 0.0, rec.DailyConsumption)
}

func TestLedger_Tick_InactiveDeviceNotAccumulated(t *testing.T) {
	ledger := NewLedger(map[string]float64{"Fan01": 60}, zap.NewNop())

	ledger.Tick(time.Hour)

	_, ok := ledger.Record("Fan01")
	assert.False(t, ok)
	assert.Equal(t, 0.0, ledger.DailyConsumption("Fan01"))
}

func TestLedger_DailyConsumption_NeverResets(t *testing.T) {
	ledger := NewLedger(map[string]float64{"Fan01": 50}, zap.NewNop())
	ledger.StartConsume("Fan01")

	// two simulated days
	for i := 0; i < 48; i++ {
		ledger.Tick(time.Hour)
	}

	assert.InDelta(t, 2.4, ledger.DailyConsumption("Fan01"), 1e-9)
}

func TestLedger_Total(t *testing.T) {
	ledger := NewLedger(map[string]float64{"A": 1000, "B": 500}, zap.NewNop())
	ledger.StartConsume("A")
	ledger.StartConsume("B")
	ledger.StartConsume("")
	ledger.Tick(30 * time.Minute)

	power, kwh := ledger.Total()
	assert.Equal(t, 1500.0, power)
	assert.InDelta(t, 0.75, kwh, 1e-9)
	assert.Equal(t, []string{"A", "B"}, ledger.ActiveDevices())

	ledger.SetRatedPower("B", 0)
	assert.Equal(t, 0.0, ledger.RatedPower("B"))
	assert.Len(t, ledger.All(), 2)
}
