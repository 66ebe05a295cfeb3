package model

import "time"

// SessionStatus is the lifecycle state of a parking session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// BillingType selects how a completed session is charged.
type BillingType string

const (
	BillingHourly  BillingType = "hourly"
	BillingDayPass BillingType = "day_pass"
)

// ValidBillingType reports whether b is one of the recognized billing types.
func ValidBillingType(b BillingType) bool {
	return b == BillingHourly || b == BillingDayPass
}

// Session ties a vehicle to a slot for the duration of a stay.
//
// ExitTime, DurationMinutes and FinalCharge are derived at park-out and set
// exactly once; a session transitions active -> completed and is then immutable.
// AlertedAt records when an overstay notification was dispatched, so each
// session is alerted at most once.
type Session struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	VehicleID       int64         `gorm:"not null;index" json:"vehicle_id"`
	SlotID          int64         `gorm:"not null;index" json:"slot_id"`
	Status          SessionStatus `gorm:"size:16;not null;index" json:"status"`
	BillingType     BillingType   `gorm:"size:16;not null" json:"billing_type"`
	EntryTime       time.Time     `gorm:"not null" json:"entry_time"`
	ExitTime        *time.Time    `json:"exit_time,omitempty"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
	FinalCharge     *float64      `json:"final_charge,omitempty"`
	AlertedAt       *time.Time    `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Associations
	Vehicle Vehicle `gorm:"constraint:OnDelete:RESTRICT" json:"vehicle,omitempty"`
	Slot    Slot    `gorm:"constraint:OnDelete:RESTRICT" json:"slot,omitempty"`
}
