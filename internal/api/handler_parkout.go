package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-backend/internal/engine"
)

type parkOutRequest struct {
	NumberPlate string `json:"numberPlate"`
	SessionID   string `json:"sessionId"`
}

// PostParkOut handles POST /api/parkout.
func (h *Handler) PostParkOut(c *gin.Context) {
	var req parkOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be valid JSON")
		return
	}
	if req.NumberPlate == "" && req.SessionID == "" {
		badRequest(c, "numberPlate or sessionId is required")
		return
	}

	result, err := h.manager.ParkOut(c.Request.Context(), engine.ParkOutRequest{
		SessionID: req.SessionID,
		Plate:     req.NumberPlate,
	}, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle checked out successfully",
		"session": gin.H{
			"id":               result.Session.ID,
			"status":           result.Session.Status,
			"billing_type":     result.Session.BillingType,
			"entry_time":       result.Session.EntryTime,
			"exit_time":        result.Session.ExitTime,
			"duration_minutes": result.DurationMinutes,
			"vehicle": gin.H{
				"number_plate":  result.Session.Vehicle.NumberPlate,
				"vehicle_class": result.Session.Vehicle.VehicleClass,
			},
			"slot": gin.H{
				"slot_number": result.Session.Slot.SlotNumber,
				"slot_class":  result.Session.Slot.SlotClass,
			},
		},
		"billing": gin.H{
			"duration_minutes": result.DurationMinutes,
			"duration_hours":   result.DurationHours,
			"amount":           result.Charge,
			"currency":         result.Currency,
		},
		"slot_released": true,
	})
}
