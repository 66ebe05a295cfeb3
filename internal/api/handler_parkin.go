package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-backend/internal/engine"
	"parking-backend/internal/model"
)

type parkInRequest struct {
	NumberPlate  string `json:"numberPlate" binding:"required"`
	VehicleClass string `json:"vehicleClass" binding:"required"`
	ManualSlotID int64  `json:"manualSlotId"`
	BillingType  string `json:"billingType"`
}

type assignedSlotResponse struct {
	SlotNumber string `json:"slot_number"`
	SlotClass  string `json:"slot_class"`
	Floor      int    `json:"floor"`
	Section    string `json:"section,omitempty"`
}

// GetAvailableSlots handles GET /api/parkin?action=available-slots, used by
// the manual-assignment form.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	if c.Query("action") != "available-slots" {
		badRequest(c, "invalid action parameter")
		return
	}

	slots, err := h.store.AvailableSlots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// PostParkIn handles POST /api/parkin.
func (h *Handler) PostParkIn(c *gin.Context) {
	var req parkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "numberPlate and vehicleClass are required")
		return
	}

	result, err := h.manager.ParkIn(c.Request.Context(), engine.ParkInRequest{
		Plate:        req.NumberPlate,
		VehicleClass: model.VehicleClass(req.VehicleClass),
		ManualSlotID: req.ManualSlotID,
		BillingType:  model.BillingType(req.BillingType),
	}, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle parked successfully",
		"session": gin.H{
			"id":           result.Session.ID,
			"status":       result.Session.Status,
			"billing_type": result.Session.BillingType,
			"entry_time":   result.Session.EntryTime,
			"vehicle": gin.H{
				"number_plate":  result.Vehicle.NumberPlate,
				"vehicle_class": result.Vehicle.VehicleClass,
			},
		},
		"slot": assignedSlotResponse{
			SlotNumber: result.Slot.SlotNumber,
			SlotClass:  string(result.Slot.SlotClass),
			Floor:      result.Slot.Floor,
			Section:    result.Slot.Section,
		},
	})
}
