package model

import "errors"

// Domain-level sentinel errors for the allocation and session lifecycle logic.
// These carry no HTTP-specific information; handlers map them to status codes.

var (
	// ErrSlotUnavailable indicates the conditional reserve write matched zero
	// rows: the slot was taken by a concurrent caller, already occupied, or in
	// maintenance.
	ErrSlotUnavailable = errors.New("slot is not available")

	// ErrNoSlotsAvailable indicates auto-allocation exhausted every compatible
	// candidate slot.
	ErrNoSlotsAvailable = errors.New("no compatible slots available")

	// ErrActiveSessionExists indicates the vehicle already has an active
	// parking session.
	ErrActiveSessionExists = errors.New("vehicle already has an active parking session")

	// ErrSessionNotFound indicates no matching active session exists.
	ErrSessionNotFound = errors.New("no active parking session found")

	// ErrSlotNotFound indicates the referenced slot does not exist.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrUnknownVehicleClass indicates the vehicle class maps to no slot classes.
	ErrUnknownVehicleClass = errors.New("unknown vehicle class")

	// ErrInvalidBillingType indicates an unrecognized billing type.
	ErrInvalidBillingType = errors.New("invalid billing type")

	// ErrInvalidPlate indicates the plate failed normalization/validation.
	ErrInvalidPlate = errors.New("invalid number plate")
)
