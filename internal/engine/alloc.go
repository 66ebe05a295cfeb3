package engine

import (
	"context"
	"errors"
	"log"

	"parking-backend/internal/model"
	"parking-backend/internal/store"
)

// Allocator performs race-safe slot reservations on top of the store's
// conditional writes.
type Allocator struct {
	store store.Store
}

// NewAllocator creates an allocation engine backed by the given store.
func NewAllocator(s store.Store) *Allocator {
	return &Allocator{store: s}
}

// ReserveManual attempts to claim exactly the requested slot. The losing side
// of a reservation race observes ErrSlotUnavailable; there is no retry in
// manual mode.
func (a *Allocator) ReserveManual(ctx context.Context, slotID int64) (model.Slot, error) {
	if err := a.store.ReserveSlot(ctx, slotID); err != nil {
		return model.Slot{}, err
	}
	slot, err := a.store.SlotByID(ctx, slotID)
	if err != nil {
		// The reservation took effect but the row vanished on re-read; give
		// the slot back before reporting.
		a.Release(ctx, slotID)
		return model.Slot{}, err
	}
	return slot, nil
}

// ReserveAuto claims the lowest-numbered available slot whose class is in the
// compatible set. Losing a race against a concurrent caller moves on to the
// next candidate instead of failing; only exhausting the candidate set yields
// ErrNoSlotsAvailable.
func (a *Allocator) ReserveAuto(ctx context.Context, classes []model.SlotClass) (model.Slot, error) {
	if len(classes) == 0 {
		return model.Slot{}, model.ErrUnknownVehicleClass
	}

	candidates, err := a.store.CandidateSlots(ctx, classes)
	if err != nil {
		return model.Slot{}, err
	}

	for _, candidate := range candidates {
		err := a.store.ReserveSlot(ctx, candidate.ID)
		if errors.Is(err, model.ErrSlotUnavailable) {
			continue // lost the race for this one, try the next
		}
		if err != nil {
			return model.Slot{}, err
		}
		candidate.Status = model.SlotOccupied
		return candidate, nil
	}

	return model.Slot{}, model.ErrNoSlotsAvailable
}

// Release puts a slot back into circulation. Used for normal park-out and as
// the compensating action when session creation fails after a reservation.
func (a *Allocator) Release(ctx context.Context, slotID int64) error {
	err := a.store.ReleaseSlot(ctx, slotID)
	if err != nil {
		log.Printf("Failed to release slot %d: %v", slotID, err)
	}
	return err
}
