package engine

import (
	"context"
	"fmt"
	"time"

	"parking-backend/config"
	"parking-backend/internal/billing"
	"parking-backend/internal/model"
	"parking-backend/internal/parse"
	"parking-backend/internal/store"
)

// Manager orchestrates the park-in and park-out lifecycles: vehicle
// resolution, slot allocation, session creation/completion and the
// compensating release that keeps the two-store sequence consistent.
type Manager struct {
	store   store.Store
	alloc   *Allocator
	billing config.BillingConfig
}

// NewManager creates a session lifecycle manager.
func NewManager(s store.Store, billingCfg config.BillingConfig) *Manager {
	return &Manager{
		store:   s,
		alloc:   NewAllocator(s),
		billing: billingCfg,
	}
}

// ParkInRequest carries the validated park-in input. Plate is raw; the
// manager normalizes it.
type ParkInRequest struct {
	Plate        string
	VehicleClass model.VehicleClass
	ManualSlotID int64
	BillingType  model.BillingType
}

// ParkInResult is the outcome of a successful park-in.
type ParkInResult struct {
	Session model.Session
	Vehicle model.Vehicle
	Slot    model.Slot
}

// ParkIn runs the full arrival flow. The reserve-slot / create-session pair
// is not transactional across stores, so it is treated as a saga: any failure
// after the reservation triggers a compensating release before the error is
// returned.
func (m *Manager) ParkIn(ctx context.Context, req ParkInRequest, now time.Time) (ParkInResult, error) {
	plate, err := parse.NormalizePlate(req.Plate)
	if err != nil {
		return ParkInResult{}, err
	}
	if !model.ValidVehicleClass(req.VehicleClass) {
		return ParkInResult{}, model.ErrUnknownVehicleClass
	}
	billingType := req.BillingType
	if billingType == "" {
		billingType = model.BillingHourly
	}
	if !model.ValidBillingType(billingType) {
		return ParkInResult{}, fmt.Errorf("%w: %q", model.ErrInvalidBillingType, req.BillingType)
	}

	vehicle, err := m.store.ResolveVehicle(ctx, plate, req.VehicleClass)
	if err != nil {
		return ParkInResult{}, err
	}

	// Cheap pre-check so we do not reserve a slot needlessly. The insert
	// below re-checks through the unique index, which closes the race window.
	active, err := m.store.HasActiveSession(ctx, vehicle.ID)
	if err != nil {
		return ParkInResult{}, err
	}
	if active {
		return ParkInResult{}, model.ErrActiveSessionExists
	}

	var slot model.Slot
	if req.ManualSlotID != 0 {
		slot, err = m.alloc.ReserveManual(ctx, req.ManualSlotID)
	} else {
		slot, err = m.alloc.ReserveAuto(ctx, CompatibleSlotClasses(req.VehicleClass))
	}
	if err != nil {
		return ParkInResult{}, err
	}

	session := model.Session{
		VehicleID:   vehicle.ID,
		SlotID:      slot.ID,
		Status:      model.SessionActive,
		BillingType: billingType,
		EntryTime:   now,
	}
	if err := m.store.CreateSession(ctx, &session); err != nil {
		// Compensating release: the slot was reserved but the session never
		// came to exist.
		m.alloc.Release(ctx, slot.ID)
		return ParkInResult{}, err
	}

	return ParkInResult{Session: session, Vehicle: vehicle, Slot: slot}, nil
}

// ParkOutRequest identifies the active session to close, by session id or by
// plate. At least one must be set.
type ParkOutRequest struct {
	SessionID string
	Plate     string
}

// ParkOutResult is the outcome of a successful park-out.
type ParkOutResult struct {
	Session         model.Session
	DurationMinutes int
	DurationHours   int
	Charge          float64
	Currency        string
}

// ParkOut locates the unique active session, derives duration and charge from
// its timestamps, completes it, and releases the slot. The session close is
// made durable before the slot release: a stale active session referencing a
// freed slot would be a real inconsistency, whereas a briefly occupied slot
// after a completed session self-corrects on the next reservation attempt.
func (m *Manager) ParkOut(ctx context.Context, req ParkOutRequest, now time.Time) (ParkOutResult, error) {
	var (
		session model.Session
		err     error
	)
	switch {
	case req.SessionID != "":
		session, err = m.store.ActiveSessionByID(ctx, req.SessionID)
	case req.Plate != "":
		var plate string
		plate, err = parse.NormalizePlate(req.Plate)
		if err == nil {
			session, err = m.store.ActiveSessionByPlate(ctx, plate)
		}
	default:
		err = model.ErrSessionNotFound
	}
	if err != nil {
		return ParkOutResult{}, err
	}

	durationMinutes := billing.DurationMinutes(session.EntryTime, now)
	charge := billing.Compute(session.EntryTime, now, session.BillingType, m.billing.DayPassFee)

	if err := m.store.CompleteSession(ctx, session.ID, now, durationMinutes, charge); err != nil {
		return ParkOutResult{}, err
	}
	// Release after the close is durable. A failure here is logged inside the
	// allocator; the occupied slot resolves itself rather than leaving a
	// completed-but-active session.
	m.alloc.Release(ctx, session.SlotID)

	session.Status = model.SessionCompleted
	session.ExitTime = &now
	session.DurationMinutes = &durationMinutes
	session.FinalCharge = &charge

	return ParkOutResult{
		Session:         session,
		DurationMinutes: durationMinutes,
		DurationHours:   billing.BillableHours(durationMinutes),
		Charge:          charge,
		Currency:        m.billing.Currency,
	}, nil
}

// Overstays returns the active sessions whose elapsed time strictly exceeds
// thresholdHours. Exactly at the threshold is not overstaying.
func (m *Manager) Overstays(ctx context.Context, thresholdHours float64, now time.Time) ([]model.Session, error) {
	cutoff := now.Add(-time.Duration(thresholdHours * float64(time.Hour)))
	return m.store.ActiveSessionsEnteredBefore(ctx, cutoff)
}
