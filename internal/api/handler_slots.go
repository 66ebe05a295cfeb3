package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-backend/internal/model"
)

// GetSlots handles GET /api/slots: the slot dashboard with per-status counts,
// an optional class filter and an optional plate search over active sessions.
func (h *Handler) GetSlots(c *gin.Context) {
	class := model.SlotClass(c.Query("type"))
	if class == "all" {
		class = ""
	}

	slots, err := h.store.ListSlots(c.Request.Context(), class)
	if err != nil {
		respondError(c, err)
		return
	}

	var available, occupied, maintenance int
	for _, s := range slots {
		switch s.Status {
		case model.SlotAvailable:
			available++
		case model.SlotOccupied:
			occupied++
		case model.SlotMaintenance:
			maintenance++
		}
	}

	occupiedData := []model.Session{}
	if search := c.Query("search"); search != "" {
		occupiedData, err = h.store.SearchActiveSessions(c.Request.Context(), search)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_slots":         len(slots),
		"available_slots":     available,
		"occupied_slots":      occupied,
		"maintenance_slots":   maintenance,
		"slots":               slots,
		"occupied_slots_data": occupiedData,
	})
}

type patchSlotRequest struct {
	SlotID int64  `json:"slotId" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// PatchSlot handles PATCH /api/slots: toggling a slot between available and
// maintenance. Occupied slots are protected by the store's conditional write;
// occupied itself is not a settable status here.
func (h *Handler) PatchSlot(c *gin.Context) {
	var req patchSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "slotId and status are required")
		return
	}

	status := model.SlotStatus(req.Status)
	if status != model.SlotAvailable && status != model.SlotMaintenance {
		badRequest(c, "status must be available or maintenance")
		return
	}

	if err := h.store.SetSlotStatus(c.Request.Context(), req.SlotID, status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Slot updated", "slot_id": req.SlotID, "status": status})
}
