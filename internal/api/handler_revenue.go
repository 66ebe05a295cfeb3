package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type revenueEntry struct {
	SessionID       string     `json:"session_id"`
	NumberPlate     string     `json:"number_plate"`
	VehicleClass    string     `json:"vehicle_class"`
	SlotNumber      string     `json:"slot_number"`
	BillingType     string     `json:"billing_type"`
	EntryTime       time.Time  `json:"entry_time"`
	ExitTime        *time.Time `json:"exit_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	FinalCharge     float64    `json:"final_charge"`
}

// GetRevenue handles GET /api/revenue: billed sessions, newest exit first,
// with the running total.
func (h *Handler) GetRevenue(c *gin.Context) {
	sessions, err := h.store.CompletedSessions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]revenueEntry, 0, len(sessions))
	var total float64
	for _, s := range sessions {
		var charge float64
		if s.FinalCharge != nil {
			charge = *s.FinalCharge
		}
		total += charge
		entries = append(entries, revenueEntry{
			SessionID:       s.ID,
			NumberPlate:     s.Vehicle.NumberPlate,
			VehicleClass:    string(s.Vehicle.VehicleClass),
			SlotNumber:      s.Slot.SlotNumber,
			BillingType:     string(s.BillingType),
			EntryTime:       s.EntryTime,
			ExitTime:        s.ExitTime,
			DurationMinutes: s.DurationMinutes,
			FinalCharge:     charge,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"revenue":       entries,
		"total_revenue": total,
		"currency":      h.cfg.Billing.Currency,
	})
}
