package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"parking-backend/config"
	"parking-backend/internal/engine"
	"parking-backend/internal/model"
	"parking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	manager *engine.Manager
	cfg     *config.Config
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, manager *engine.Manager, cfg *config.Config, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		manager: manager,
		cfg:     cfg,
		webpush: webpushOptions,
	}
}

// Error kinds exposed to clients alongside the human-readable message.
const (
	kindValidation = "validation"
	kindConflict   = "conflict"
	kindNotFound   = "not_found"
	kindCapacity   = "capacity"
	kindInternal   = "internal"
)

// respondError maps a domain error to an HTTP status and a stable
// machine-readable kind.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := kindInternal
	message := err.Error()

	switch {
	case errors.Is(err, model.ErrInvalidPlate),
		errors.Is(err, model.ErrUnknownVehicleClass),
		errors.Is(err, model.ErrInvalidBillingType),
		errors.Is(err, model.ErrSlotUnavailable):
		status, kind = http.StatusBadRequest, kindValidation
	case errors.Is(err, model.ErrActiveSessionExists):
		status, kind = http.StatusConflict, kindConflict
	case errors.Is(err, model.ErrNoSlotsAvailable):
		status, kind = http.StatusConflict, kindCapacity
	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, model.ErrSlotNotFound):
		status, kind = http.StatusNotFound, kindNotFound
	default:
		log.Printf("Internal error: %v", err)
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, gin.H{"kind": kind, "error": message})
}

// badRequest emits a validation error for malformed input caught at binding.
func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"kind": kindValidation, "error": message})
}
