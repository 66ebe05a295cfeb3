package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parking-backend/internal/billing"
)

type overstayEntry struct {
	SessionID      string    `json:"session_id"`
	NumberPlate    string    `json:"number_plate"`
	VehicleClass   string    `json:"vehicle_class"`
	SlotNumber     string    `json:"slot_number"`
	EntryTime      time.Time `json:"entry_time"`
	ElapsedMinutes int       `json:"elapsed_minutes"`
	ElapsedHours   int       `json:"elapsed_hours"`
}

// GetOverstay handles GET /api/overstay. The configured threshold can be
// overridden per request with ?threshold_hours=N.
func (h *Handler) GetOverstay(c *gin.Context) {
	threshold := h.cfg.Overstay.ThresholdHours
	if raw := c.Query("threshold_hours"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			badRequest(c, "threshold_hours must be a positive number")
			return
		}
		threshold = v
	}

	now := time.Now().UTC()
	sessions, err := h.manager.Overstays(c.Request.Context(), threshold, now)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]overstayEntry, 0, len(sessions))
	for _, s := range sessions {
		minutes := billing.DurationMinutes(s.EntryTime, now)
		entries = append(entries, overstayEntry{
			SessionID:      s.ID,
			NumberPlate:    s.Vehicle.NumberPlate,
			VehicleClass:   string(s.Vehicle.VehicleClass),
			SlotNumber:     s.Slot.SlotNumber,
			EntryTime:      s.EntryTime,
			ElapsedMinutes: minutes,
			ElapsedHours:   billing.BillableHours(minutes),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"threshold_hours":      threshold,
		"overstaying_vehicles": entries,
	})
}
