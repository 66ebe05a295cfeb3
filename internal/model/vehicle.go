package model

import "time"

// VehicleClass is the declared category of a vehicle at park-in.
type VehicleClass string

const (
	VehicleCar        VehicleClass = "car"
	VehicleTwoWheeler VehicleClass = "two_wheeler"
	VehicleElectric   VehicleClass = "electric"
	VehicleAccessible VehicleClass = "accessible"
)

// ValidVehicleClass reports whether c is one of the recognized vehicle classes.
func ValidVehicleClass(c VehicleClass) bool {
	switch c {
	case VehicleCar, VehicleTwoWheeler, VehicleElectric, VehicleAccessible:
		return true
	}
	return false
}

// Vehicle is created on first sighting of a plate and never deleted.
// NumberPlate is stored case-normalized (upper case).
type Vehicle struct {
	ID           int64        `gorm:"primaryKey" json:"id"`
	NumberPlate  string       `gorm:"uniqueIndex;size:32;not null" json:"number_plate"`
	VehicleClass VehicleClass `gorm:"size:32;not null" json:"vehicle_class"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
