package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-backend/internal/model"
)

// Store defines the interface for all database operations.
//
// Slot status changes are expressed as conditional writes keyed on the current
// status; the number of affected rows is the only race signal. Requests may
// arrive on independent processes, so no in-process lock can substitute.
type Store interface {
	DB() *gorm.DB

	// Slots
	SlotByID(ctx context.Context, slotID int64) (model.Slot, error)
	ListSlots(ctx context.Context, class model.SlotClass) ([]model.Slot, error)
	AvailableSlots(ctx context.Context) ([]model.Slot, error)
	CandidateSlots(ctx context.Context, classes []model.SlotClass) ([]model.Slot, error)
	ReserveSlot(ctx context.Context, slotID int64) error
	ReleaseSlot(ctx context.Context, slotID int64) error
	SetSlotStatus(ctx context.Context, slotID int64, status model.SlotStatus) error

	// Vehicles
	ResolveVehicle(ctx context.Context, plate string, class model.VehicleClass) (model.Vehicle, error)

	// Sessions
	CreateSession(ctx context.Context, session *model.Session) error
	HasActiveSession(ctx context.Context, vehicleID int64) (bool, error)
	ActiveSessionByID(ctx context.Context, sessionID string) (model.Session, error)
	ActiveSessionByPlate(ctx context.Context, plate string) (model.Session, error)
	CompleteSession(ctx context.Context, sessionID string, exit time.Time, durationMinutes int, charge float64) error
	ActiveSessionsEnteredBefore(ctx context.Context, cutoff time.Time) ([]model.Session, error)
	UnalertedOverstays(ctx context.Context, cutoff time.Time) ([]model.Session, error)
	MarkOverstayAlerted(ctx context.Context, sessionID string, at time.Time) error
	CompletedSessions(ctx context.Context) ([]model.Session, error)
	SearchActiveSessions(ctx context.Context, plateFragment string) ([]model.Session, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// --- Slots ---

func (s *gormStore) SlotByID(ctx context.Context, slotID int64) (model.Slot, error) {
	var slot model.Slot
	err := s.db.WithContext(ctx).First(&slot, slotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Slot{}, model.ErrSlotNotFound
	}
	if err != nil {
		return model.Slot{}, fmt.Errorf("failed to fetch slot %d: %w", slotID, err)
	}
	return slot, nil
}

func (s *gormStore) ListSlots(ctx context.Context, class model.SlotClass) ([]model.Slot, error) {
	q := s.db.WithContext(ctx).Order("slot_number ASC")
	if class != "" {
		q = q.Where("slot_class = ?", class)
	}
	var slots []model.Slot
	if err := q.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (s *gormStore) AvailableSlots(ctx context.Context) ([]model.Slot, error) {
	var slots []model.Slot
	err := s.db.WithContext(ctx).
		Where("status = ?", model.SlotAvailable).
		Order("slot_number ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available slots: %w", err)
	}
	return slots, nil
}

// CandidateSlots returns the available slots whose class is in the compatible
// set, lowest slot number first so auto-allocation is deterministic.
func (s *gormStore) CandidateSlots(ctx context.Context, classes []model.SlotClass) ([]model.Slot, error) {
	var slots []model.Slot
	err := s.db.WithContext(ctx).
		Where("status = ? AND slot_class IN ?", model.SlotAvailable, classes).
		Order("slot_number ASC, id ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate slots: %w", err)
	}
	return slots, nil
}

// ReserveSlot transitions a slot from available to occupied with a single
// conditional write. Zero affected rows means the slot was taken by a
// concurrent caller, already occupied, in maintenance, or missing; all of
// those surface as ErrSlotUnavailable.
func (s *gormStore) ReserveSlot(ctx context.Context, slotID int64) error {
	res := s.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("id = ? AND status = ?", slotID, model.SlotAvailable).
		Update("status", model.SlotOccupied)
	if res.Error != nil {
		return fmt.Errorf("failed to reserve slot %d: %w", slotID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrSlotUnavailable
	}
	return nil
}

// ReleaseSlot transitions a slot back to available unconditionally. Used on
// park-out and as the compensating action when session creation fails after a
// successful reservation.
func (s *gormStore) ReleaseSlot(ctx context.Context, slotID int64) error {
	res := s.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("id = ?", slotID).
		Update("status", model.SlotAvailable)
	if res.Error != nil {
		return fmt.Errorf("failed to release slot %d: %w", slotID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrSlotNotFound
	}
	return nil
}

// SetSlotStatus toggles a slot between available and maintenance. The write
// is conditional on the slot not being occupied, so an administrative toggle
// can never clobber a live reservation.
func (s *gormStore) SetSlotStatus(ctx context.Context, slotID int64, status model.SlotStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("id = ? AND status <> ?", slotID, model.SlotOccupied).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to set slot %d status: %w", slotID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrSlotUnavailable
	}
	return nil
}

// --- Vehicles ---

// ResolveVehicle returns the vehicle for a normalized plate, creating it on
// first sighting. Insert-or-fetch keyed on the unique plate: concurrent
// resolution of the same new plate cannot create duplicates.
func (s *gormStore) ResolveVehicle(ctx context.Context, plate string, class model.VehicleClass) (model.Vehicle, error) {
	vehicle := model.Vehicle{
		NumberPlate:  plate,
		VehicleClass: class,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number_plate"}},
		DoUpdates: clause.AssignmentColumns([]string{"vehicle_class", "updated_at"}),
	}).Create(&vehicle).Error
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("failed to upsert vehicle %q: %w", plate, err)
	}

	// Re-fetch by plate: on a conflict the returned struct may not carry the
	// existing row's id on every driver.
	var resolved model.Vehicle
	if err := s.db.WithContext(ctx).Where("number_plate = ?", plate).First(&resolved).Error; err != nil {
		return model.Vehicle{}, fmt.Errorf("failed to fetch vehicle %q after upsert: %w", plate, err)
	}
	return resolved, nil
}

// --- Sessions ---

// CreateSession inserts a new active session. The partial unique indexes on
// (vehicle_id) and (slot_id) over active rows make the insert itself the
// authoritative duplicate check.
func (s *gormStore) CreateSession(ctx context.Context, session *model.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Create(session).Error
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrActiveSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *gormStore) HasActiveSession(ctx context.Context, vehicleID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("vehicle_id = ? AND status = ?", vehicleID, model.SessionActive).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check active session for vehicle %d: %w", vehicleID, err)
	}
	return count > 0, nil
}

func (s *gormStore) ActiveSessionByID(ctx context.Context, sessionID string) (model.Session, error) {
	var session model.Session
	err := s.db.WithContext(ctx).
		Preload("Vehicle").Preload("Slot").
		Where("id = ? AND status = ?", sessionID, model.SessionActive).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Session{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to fetch session %s: %w", sessionID, err)
	}
	return session, nil
}

func (s *gormStore) ActiveSessionByPlate(ctx context.Context, plate string) (model.Session, error) {
	var session model.Session
	err := s.db.WithContext(ctx).
		Preload("Vehicle").Preload("Slot").
		Joins("JOIN vehicles ON vehicles.id = sessions.vehicle_id").
		Where("vehicles.number_plate = ? AND sessions.status = ?", plate, model.SessionActive).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Session{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to fetch session for plate %q: %w", plate, err)
	}
	return session, nil
}

// CompleteSession writes the derived exit data and transitions the session
// active -> completed in one conditional update. Zero affected rows means the
// session was already completed (or never existed).
func (s *gormStore) CompleteSession(ctx context.Context, sessionID string, exit time.Time, durationMinutes int, charge float64) error {
	res := s.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND status = ?", sessionID, model.SessionActive).
		Updates(map[string]interface{}{
			"status":           model.SessionCompleted,
			"exit_time":        exit,
			"duration_minutes": durationMinutes,
			"final_charge":     charge,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete session %s: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

// ActiveSessionsEnteredBefore returns active sessions whose entry time is
// strictly earlier than cutoff, oldest first.
func (s *gormStore) ActiveSessionsEnteredBefore(ctx context.Context, cutoff time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := s.db.WithContext(ctx).
		Preload("Vehicle").Preload("Slot").
		Where("status = ? AND entry_time < ?", model.SessionActive, cutoff).
		Order("entry_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan for overstays: %w", err)
	}
	return sessions, nil
}

// UnalertedOverstays is ActiveSessionsEnteredBefore restricted to sessions
// that have not yet been alerted.
func (s *gormStore) UnalertedOverstays(ctx context.Context, cutoff time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := s.db.WithContext(ctx).
		Preload("Vehicle").Preload("Slot").
		Where("status = ? AND entry_time < ? AND alerted_at IS NULL", model.SessionActive, cutoff).
		Order("entry_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan for unalerted overstays: %w", err)
	}
	return sessions, nil
}

func (s *gormStore) MarkOverstayAlerted(ctx context.Context, sessionID string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND alerted_at IS NULL", sessionID).
		Update("alerted_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark session %s alerted: %w", sessionID, err)
	}
	return nil
}

// CompletedSessions returns billed sessions newest exit first, for the
// revenue report.
func (s *gormStore) CompletedSessions(ctx context.Context) ([]model.Session, error) {
	var sessions []model.Session
	err := s.db.WithContext(ctx).
		Preload("Vehicle").Preload("Slot").
		Where("status = ? AND final_charge IS NOT NULL", model.SessionCompleted).
		Order("exit_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed sessions: %w", err)
	}
	return sessions, nil
}

// SearchActiveSessions matches active sessions whose plate contains the given
// fragment (case-insensitive on the already upper-cased plates).
func (s *gormStore) SearchActiveSessions(ctx context.Context, plateFragment string) ([]model.Session, error) {
	var sessions []model.Session
	err := s.db.WithContext(ctx).
		Preload("Vehicle").Preload("Slot").
		Joins("JOIN vehicles ON vehicles.id = sessions.vehicle_id").
		Where("sessions.status = ? AND vehicles.number_plate LIKE ?", model.SessionActive, "%"+strings.ToUpper(plateFragment)+"%").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search active sessions: %w", err)
	}
	return sessions, nil
}

// isUniqueViolation recognizes unique-constraint errors from both supported
// drivers without relying on dialect-specific error types.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
