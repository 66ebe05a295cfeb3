package model

import "time"

// SlotClass categorizes a parking space and constrains which vehicles may occupy it.
type SlotClass string

const (
	SlotStandard   SlotClass = "standard"
	SlotCompact    SlotClass = "compact"
	SlotTwoWheeler SlotClass = "two_wheeler"
	SlotElectric   SlotClass = "electric"
	SlotAccessible SlotClass = "accessible"
)

// SlotStatus is the lifecycle state of a physical slot.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotOccupied    SlotStatus = "occupied"
	SlotMaintenance SlotStatus = "maintenance"
)

// ValidSlotStatus reports whether s is one of the recognized slot statuses.
func ValidSlotStatus(s SlotStatus) bool {
	switch s {
	case SlotAvailable, SlotOccupied, SlotMaintenance:
		return true
	}
	return false
}

// Slot represents a physical parking slot.
//
// Status must only move between available and occupied through the store's
// conditional reserve/release writes; maintenance is toggled administratively.
type Slot struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	SlotNumber string     `gorm:"uniqueIndex;size:32;not null" json:"slot_number"`
	SlotClass  SlotClass  `gorm:"size:32;not null;index" json:"slot_class"`
	Status     SlotStatus `gorm:"size:16;not null;index" json:"status"`
	Floor      int        `json:"floor"`
	Section    string     `gorm:"size:32" json:"section"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
