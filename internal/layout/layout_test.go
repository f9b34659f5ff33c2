package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/August1314/nicehouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	l := Default()
	require.Len(t, l.Rooms, 6)

	rooms := map[string]bool{}
	for _, r := range l.Rooms {
		rooms[r.RoomID] = true
	}
	for _, d := range l.Devices {
		assert.True(t, rooms[d.RoomID], "device %s in unknown room", d.DeviceID)
	}

	power := l.RatedPower()
	assert.Equal(t, 1500.0, power["AC_LivingRoom01"])
	_, hasWindow := power["Windows01"]
	assert.False(t, hasWindow)
	assert.Len(t, l.DeviceInfos(), len(l.Devices))
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	l, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), l)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "house.json")
	body := `{
		"rooms": [{"room_id": "Loft01", "room_type": "Other", "display_name": "Loft"}],
		"devices": [{"device_id": "AC_Loft", "device_type": "AirConditioner", "room_id": "Loft01", "rated_power": 900}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	l, err := Load(path)
	require.NoError(t, err)
	require.Len(t, l.Devices, 1)
	assert.Equal(t, models.DeviceTypeAirConditioner, l.Devices[0].DeviceType)
	assert.Equal(t, map[string]float64{"AC_Loft": 900}, l.RatedPower())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad json":     `{`,
		"no rooms":     `{"rooms": []}`,
		"unknown type": `{"rooms":[{"room_id":"R"}],"devices":[{"device_id":"D","device_type":"Toaster","room_id":"R"}]}`,
		"unknown room": `{"rooms":[{"room_id":"R"}],"devices":[{"device_id":"D","device_type":"Fan","room_id":"X"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}
