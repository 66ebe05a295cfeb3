package billing

import (
	"time"

	"parking-backend/internal/model"
)

// Hourly tier table in fixed currency units. Each boundary is inclusive of
// the bucket's upper hour count: exactly 1.0h bills the first tier.
const (
	tierOneHour    = 50
	tierThreeHours = 100
	tierSixHours   = 150
	tierOverSix    = 200
)

// DurationMinutes returns the billable duration between entry and exit,
// rounded up to whole minutes. Never negative.
func DurationMinutes(entry, exit time.Time) int {
	d := exit.Sub(entry)
	if d <= 0 {
		return 0
	}
	minutes := int(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes
}

// BillableHours returns the duration rounded up to whole hours, for display.
func BillableHours(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + 59) / 60
}

// Compute derives the final charge from entry/exit timestamps and the billing
// type. It is a pure function of its inputs: the same timestamps always yield
// the same charge, which makes a partially failed park-out safe to retry.
func Compute(entry, exit time.Time, billingType model.BillingType, dayPassFee float64) float64 {
	if billingType == model.BillingDayPass {
		return dayPassFee
	}
	// Bucket on exact minutes so that boundary durations (60, 180, 360
	// minutes) land in the lower tier.
	minutes := DurationMinutes(entry, exit)
	switch {
	case minutes <= 60:
		return tierOneHour
	case minutes <= 180:
		return tierThreeHours
	case minutes <= 360:
		return tierSixHours
	default:
		return tierOverSix
	}
}
