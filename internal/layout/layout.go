// Package layout describes the rooms and devices of a house.
package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/August1314/nicehouse/internal/models"
)

// DeviceEntry device descriptor plus its rated power in watts.
type DeviceEntry struct {
	models.Device
	RatedPower float64 `json:"rated_power"`
}

// Layout rooms and devices registered at startup
type Layout struct {
	Rooms   []models.Room `json:"rooms"`
	Devices []DeviceEntry  `json:"devices"`
}

// DeviceInfos strips the rated power.
func (l Layout) DeviceInfos() []models.Device {
	out := make([]models.Device, 0, len(l.Devices))
	for _, d := range l.Devices {
		out = append(out, d.Device)
	}
	return out
}

// RatedPower table keyed by device id. Devices with zero power are left out.
func (l Layout) RatedPower() map[string]float64 {
	out := make(map[string]float64, len(l.Devices))
	for _, d := range l.Devices {
		if d.RatedPower > 0 {
			out[d.DeviceID] = d.RatedPower
		}
	}
	return out
}

func room(id string, t models.RoomType, name string, minX, minZ, maxX, maxZ float64) models.Room {
	return models.Room{
		RoomID:      id,
		RoomType:    t,
		DisplayName: name,
		Bounds: models.Bounds{
			Min: models.Vec3{X: minX, Y: 0, Z: minZ},
			Max: models.Vec3{X: maxX, Y: 3, Z: maxZ},
		},
	}
}

func dev(id string, t models.DeviceType, roomID string, watts float64) DeviceEntry {
	return DeviceEntry{
		Device:     models.Device{DeviceID: id, DeviceType: t, RoomID: roomID},
		RatedPower: watts,
	}
}

// Default the single-storey demo house.
func Default() Layout {
	return Layout{
		Rooms: []models.Room{
			room("LivingRoom01", models.RoomTypeLivingRoom, "Living Room", 0, 0, 6, 5),
			room("Kitchen01", models.RoomTypeKitchen, "Kitchen", 6, 0, 9, 3),
			room("Study01", models.RoomTypeStudy, "Study", 9, 0, 12, 4),
			room("Bathroom01", models.RoomTypeBathroom, "Bathroom", 6, 3, 9, 5),
			room("BedRoom01", models.RoomTypeBedroom, "Bedroom", 0, 5, 5, 9),
			room("Corridor01", models.RoomTypeCorridor, "Corridor", 5, 5, 12, 6.5),
		},
		Devices: []DeviceEntry{
			dev("AC_LivingRoom01", models.DeviceTypeAirConditioner, "LivingRoom01", 1500),
			dev("Purifier_LivingRoom01", models.DeviceTypeAirPurifier, "LivingRoom01", 50),
			dev("Fan_LivingRoom01", models.DeviceTypeFan, "LivingRoom01", 60),
			dev("Light_LivingRoom01", models.DeviceTypeLight, "LivingRoom01", 20),
			dev("Windows01", models.DeviceTypeWindow, "LivingRoom01", 0),
			dev("Pm25_LivingRoom01", models.DeviceTypePm25Sensor, "LivingRoom01", 0),
			dev("FreshAir_Kitchen01", models.DeviceTypeFreshAirSystem, "Kitchen01", 120),
			dev("Light_Kitchen01", models.DeviceTypeLight, "Kitchen01", 15),
			dev("Smoke_Kitchen01", models.DeviceTypeSmokeSensor, "Kitchen01", 0),
			dev("AC_Study01", models.DeviceTypeAirConditioner, "Study01", 1200),
			dev("Light_Study01", models.DeviceTypeLight, "Study01", 15),
			dev("Fan_Bathroom01", models.DeviceTypeFan, "Bathroom01", 40),
			dev("HelpButton_Bathroom01", models.DeviceTypeHelpButton, "Bathroom01", 0),
			dev("AC_BedRoom01", models.DeviceTypeAirConditioner, "BedRoom01", 1200),
			dev("Purifier_BedRoom01", models.DeviceTypeAirPurifier, "BedRoom01", 45),
			dev("Light_BedRoom01", models.DeviceTypeLight, "BedRoom01", 15),
			dev("Light_Corridor01", models.DeviceTypeLight, "Corridor01", 10),
		},
	}
}

// Load reads a JSON layout from path. An empty path returns Default.
func Load(path string) (Layout, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON layout and checks device rooms exist.
func Parse(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("failed to decode layout: %w", err)
	}
	if len(l.Rooms) == 0 {
		return Layout{}, fmt.Errorf("layout has no rooms")
	}
	rooms := make(map[string]bool, len(l.Rooms))
	for _, r := range l.Rooms {
		rooms[r.RoomID] = true
	}
	for _, d := range l.Devices {
		if _, ok := models.ParseDeviceType(string(d.DeviceType)); !ok {
			return Layout{}, fmt.Errorf("device %s: unknown type %q", d.DeviceID, d.DeviceType)
		}
		if !rooms[d.RoomID] {
			return Layout{}, fmt.Errorf("device %s: unknown room %q", d.DeviceID, d.RoomID)
		}
	}
	return l, nil
}
