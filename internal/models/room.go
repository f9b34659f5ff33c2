package models

// RoomType room category
type RoomType string

const (
	RoomTypeLivingRoom RoomType = "LivingRoom"
	RoomTypeBedroom    RoomType = "Bedroom"
	RoomTypeKitchen    RoomType = "Kitchen"
	RoomTypeBathroom   RoomType = "Bathroom"
	RoomTypeStudy      RoomType = "Study"
	RoomTypeCorridor   RoomType = "Corridor"
	RoomTypeOther      RoomType = "Other"
)

// Vec3 point in house coordinates (meters)
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Bounds axis-aligned box
type Bounds struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Contains reports whether p lies inside b (inclusive).
func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Room static room descriptor
type Room struct {
	RoomID      string   `json:"room_id"`
	RoomType    RoomType `json:"room_type"`
	DisplayName string   `json:"display_name"`
	Bounds      Bounds   `json:"bounds"`
}
