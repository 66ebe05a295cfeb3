package engine

import "parking-backend/internal/model"

// compatTable maps each vehicle class to the set of slot classes it may
// occupy. Cars fit standard and compact slots; the remaining classes map
// one-to-one.
var compatTable = map[model.VehicleClass][]model.SlotClass{
	model.VehicleCar:        {model.SlotStandard, model.SlotCompact},
	model.VehicleTwoWheeler: {model.SlotTwoWheeler},
	model.VehicleElectric:   {model.SlotElectric},
	model.VehicleAccessible: {model.SlotAccessible},
}

// CompatibleSlotClasses resolves a vehicle class to the slot classes it may
// occupy. Unknown classes yield an empty set; the caller must reject those
// with a validation error.
func CompatibleSlotClasses(class model.VehicleClass) []model.SlotClass {
	classes, ok := compatTable[class]
	if !ok {
		return nil
	}
	out := make([]model.SlotClass, len(classes))
	copy(out, classes)
	return out
}
