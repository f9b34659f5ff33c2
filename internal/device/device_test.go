package device

import (
	"errors"
	"sync"
	"testing"

	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMeter struct {
	mu      sync.Mutex
	started []string
	stopped []string
}

func (f *fakeMeter) StartConsume(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
}

func (f *fakeMeter) StopConsume(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
}

func acInfo() models.Device {
	return models.Device{DeviceID: "AC01", DeviceType: models.DeviceTypeAirConditioner, RoomID: "LivingRoom01"}
}

func TestAirConditioner_TurnOn_Idempotent(t *testing.T) {
	meter := &fakeMeter{}
	ac := NewAirConditioner(acInfo(), meter)

	assert.False(t, ac.IsOn())
	assert.Equal(t, models.DeviceStatusOff, ac.Status())

	ac.TurnOn()
	ac.TurnOn()

	assert.True(t, ac.IsOn())
	assert.Equal(t, models.DeviceStatusRunning, ac.Status())
	assert.Equal(t, []string{"AC01"}, meter.started)

	ac.TurnOff()
	ac.TurnOff()
	assert.False(t, ac.IsOn())
	assert.Equal(t, []string{"AC01"}, meter.stopped)
}

func TestAirConditioner_TargetTemperature(t *testing.T) {
	ac := NewAirConditioner(acInfo(), nil).(Thermostat)

	assert.Equal(t, DefaultTargetTemperature, ac.TargetTemperature())
	ac.SetTargetTemperature(22)
	assert.Equal(t, 22.0, ac.TargetTemperature())
}

func TestLight_Toggle(t *testing.T) {
	meter := &fakeMeter{}
	light := NewLight(models.Device{DeviceID: "Light01", DeviceType: models.DeviceTypeLight}, meter).(*Light)

	light.Toggle()
	assert.True(t, light.IsOn())
	assert.Equal(t, models.DeviceStatusOn, light.Status())

	light.Toggle()
	assert.False(t, light.IsOn())
	assert.Equal(t, []string{"Light01"}, meter.started)
	assert.Equal(t, []string{"Light01"}, meter.stopped)
}

func TestFactory_Build(t *testing.T) {
	f := NewFactory()

	d, err := f.Build(models.Device{DeviceID: "P1", DeviceType: models.DeviceTypeAirPurifier}, nil)
	require.NoError(t, err)
	_, isPurifier := d.(*AirPurifier)
	assert.True(t, isPurifier)

	_, err = f.Build(models.Device{DeviceID: "S1", DeviceType: models.DeviceTypeSmokeSensor}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
	assert.False(t, f.Supports(models.DeviceTypeHelpButton))
}

func TestFactory_Register_Custom(t *testing.T) {
	f := NewFactory()
	f.Register(models.DeviceTypeHelpButton, NewLight)

	d, err := f.Build(models.Device{DeviceID: "Help01", DeviceType: models.DeviceTypeHelpButton}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Help01", d.Info().DeviceID)
}

func TestManager_Build_SkipsUnsupported(t *testing.T) {
	m := NewManager(NewFactory(), &fakeMeter{}, zap.NewNop())

	n := m.Build([]models.Device{
		acInfo(),
		{DeviceID: "Smoke01", DeviceType: models.DeviceTypeSmokeSensor, RoomID: "Kitchen01"},
		{DeviceID: "Fan01", DeviceType: models.DeviceTypeFan, RoomID: "LivingRoom01"},
		acInfo(),
	})

	assert.Equal(t, 2, n)
	_, ok := m.Get("Smoke01")
	assert.False(t, ok)
	assert.Len(t, m.InRoom("LivingRoom01", models.DeviceTypeFan), 1)
	assert.Len(t, m.All(), 2)
}

func TestManager_SetPower_NotifiesInOrder(t *testing.T) {
	m := NewManager(NewFactory(), &fakeMeter{}, zap.NewNop())
	m.Build([]models.Device{acInfo()})

	var seen []string
	m.OnStateChange("first", func(c StateChange) error {
		seen = append(seen, "first")
		return nil
	})
	m.OnStateChange("second", func(c StateChange) error {
		seen = append(seen, "second")
		assert.True(t, c.On)
		assert.Equal(t, models.DeviceStatusRunning, c.Status)
		return errors.New("ignored by caller, logged")
	})

	changed, err := m.SetPower("AC01", true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"first", "second"}, seen)

	changed, err = m.SetPower("AC01", true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, seen, 2)
}

func TestManager_SetPower_UnknownDevice(t *testing.T) {
	m := NewManager(NewFactory(), nil, zap.NewNop())

	_, err := m.SetPower("ghost", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrUnknownDevice))
}

func TestState_IncludesTargetForThermostat(t *testing.T) {
	ac := NewAirConditioner(acInfo(), nil)
	ac.TurnOn()

	st := State(ac, models.EnergyRecord{CurrentPower: 1500, DailyConsumption: 0.2})
	require.NotNil(t, st.TargetTemperature)
	assert.Equal(t, DefaultTargetTemperature, *st.TargetTemperature)
	assert.True(t, st.On)
	assert.Equal(t, 1500.0, st.CurrentPower)

	fan := NewFan(models.Device{DeviceID: "Fan01", DeviceType: models.DeviceTypeFan}, nil)
	assert.Nil(t, State(fan, models.EnergyRecord{}).TargetTemperature)
}
