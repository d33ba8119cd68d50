package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-slot-booking/internal/converter"
	"clinic-slot-booking/internal/delivery/dto"
	"clinic-slot-booking/internal/domain/entity"
	"clinic-slot-booking/internal/domain/repository"
	"clinic-slot-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrSlotNotFound     = errors.New("slot not found")
	ErrSlotExists       = errors.New("a slot with this time window already exists")
	ErrSlotBooked       = errors.New("slot has a confirmed booking and cannot be removed")
	ErrInvalidDays      = errors.New("days must be between 1 and the configured maximum")
	ErrMissingSlotDates = errors.New("start_at and end_at are required")
	ErrInvalidInstant   = errors.New("invalid instant format, use ISO-8601 (RFC 3339)")
	ErrInvalidTimeRange = errors.New("start_at must be before end_at")
)

type SlotUsecase interface {
	GenerateSlots(ctx context.Context, adminID uuid.UUID, days int) (*dto.GenerateSlotsResponse, error)
	AddSlot(ctx context.Context, adminID uuid.UUID, startAt, endAt string) (*dto.SlotResponse, error)
	RemoveSlot(ctx context.Context, adminID uuid.UUID, rawSlotID string) error
	ListPublicSlots(ctx context.Context, from, to string, includeBooked bool) (*dto.SlotListResponse, error)
	ListAdminSlots(ctx context.Context, from, to string) (*dto.SlotListResponse, error)
}

type slotUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	maxDays      int
	slotRepo     repository.SlotRepository
	availability *service.AvailabilityService
	audit        service.AuditService
}

func NewSlotUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	maxDays int,
	slotRepo repository.SlotRepository,
	availability *service.AvailabilityService,
	audit service.AuditService,
) SlotUsecase {
	return &slotUsecase{
		db:           db,
		log:          log,
		maxDays:      maxDays,
		slotRepo:     slotRepo,
		availability: availability,
		audit:        audit,
	}
}

// GenerateSlots bulk-creates weekday slots starting today. Generation
// is idempotent: windows that already exist in the store are skipped,
// so re-running with the same range produces no duplicates.
func (u *slotUsecase) GenerateSlots(ctx context.Context, adminID uuid.UUID, days int) (*dto.GenerateSlotsResponse, error) {
	if days < 1 || days > u.maxDays {
		return nil, ErrInvalidDays
	}

	now := time.Now().UTC()
	windows := u.availability.GenerateWeekdaySlots(now, days)

	rangeStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rangeEnd := rangeStart.AddDate(0, 0, days)
	existing, err := u.slotRepo.FindInRange(u.db.WithContext(ctx), rangeStart, rangeEnd, true)
	if err != nil {
		u.log.Warnf("Failed to load existing slots for generation: %+v", err)
		return nil, err
	}

	// Key on the Unix instant: driver round trips may change the
	// time.Time representation without changing the instant.
	taken := make(map[int64]bool, len(existing))
	for _, slot := range existing {
		taken[slot.StartAt.Unix()] = true
	}

	generated, skipped := 0, 0
	for _, window := range windows {
		if taken[window.StartAt.Unix()] {
			skipped++
			continue
		}

		slot := &entity.Slot{StartAt: window.StartAt, EndAt: window.EndAt}
		if err := u.slotRepo.Create(u.db.WithContext(ctx), slot); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent generation inserted the same window first.
				skipped++
				continue
			}
			u.log.Warnf("Failed to create generated slot %s: %+v", window.StartAt, err)
			return nil, err
		}
		generated++
	}

	if err := u.audit.LogAction(ctx, u.db.WithContext(ctx), &adminID, entity.AuditActionSlotGenerate, entity.JSON{
		"days":      days,
		"generated": generated,
		"skipped":   skipped,
	}); err != nil {
		u.log.Warnf("Failed to audit slot generation: %+v", err)
	}

	u.log.Infof("Slot generation: days=%d, generated=%d, skipped=%d", days, generated, skipped)
	return &dto.GenerateSlotsResponse{Generated: generated, Skipped: skipped}, nil
}

// AddSlot creates a single slot from ISO-8601 instants
func (u *slotUsecase) AddSlot(ctx context.Context, adminID uuid.UUID, startAt, endAt string) (*dto.SlotResponse, error) {
	if startAt == "" || endAt == "" {
		return nil, ErrMissingSlotDates
	}

	start, err := time.Parse(time.RFC3339, startAt)
	if err != nil {
		return nil, ErrInvalidInstant
	}
	end, err := time.Parse(time.RFC3339, endAt)
	if err != nil {
		return nil, ErrInvalidInstant
	}

	if !start.Before(end) {
		return nil, ErrInvalidTimeRange
	}

	slot := &entity.Slot{StartAt: start.UTC(), EndAt: end.UTC()}
	if err := u.slotRepo.Create(u.db.WithContext(ctx), slot); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotExists
		}
		u.log.Warnf("Failed to create slot %s..%s: %+v", startAt, endAt, err)
		return nil, err
	}

	if err := u.audit.LogAction(ctx, u.db.WithContext(ctx), &adminID, entity.AuditActionSlotCreate, entity.JSON{
		"slot_id":  slot.ID.String(),
		"start_at": slot.StartAt,
		"end_at":   slot.EndAt,
	}); err != nil {
		u.log.Warnf("Failed to audit slot creation: %+v", err)
	}

	return converter.SlotToResponse(slot), nil
}

// RemoveSlot deletes a slot only while it has no confirmed booking.
// The delete itself re-checks the flag so a booking that lands between
// the lookup and the delete still blocks removal.
func (u *slotUsecase) RemoveSlot(ctx context.Context, adminID uuid.UUID, rawSlotID string) error {
	slotID, err := uuid.Parse(rawSlotID)
	if err != nil {
		return ErrInvalidSlotID
	}

	slot, err := u.slotRepo.FindByID(u.db.WithContext(ctx), slotID)
	if err != nil {
		u.log.Warnf("Failed to find slot %s: %+v", slotID, err)
		return err
	}
	if slot == nil {
		return ErrSlotNotFound
	}
	if slot.IsBooked {
		return ErrSlotBooked
	}

	affected, err := u.slotRepo.Delete(u.db.WithContext(ctx), slotID)
	if err != nil {
		u.log.Warnf("Failed to delete slot %s: %+v", slotID, err)
		return err
	}
	if affected == 0 {
		// Someone booked it (or deleted it) after our lookup.
		current, findErr := u.slotRepo.FindByID(u.db.WithContext(ctx), slotID)
		if findErr == nil && current == nil {
			return ErrSlotNotFound
		}
		return ErrSlotBooked
	}

	if err := u.audit.LogAction(ctx, u.db.WithContext(ctx), &adminID, entity.AuditActionSlotDelete, entity.JSON{
		"slot_id":  slotID.String(),
		"start_at": slot.StartAt,
		"end_at":   slot.EndAt,
	}); err != nil {
		u.log.Warnf("Failed to audit slot deletion: %+v", err)
	}

	return nil
}

// ListPublicSlots applies the patient-facing window rules
func (u *slotUsecase) ListPublicSlots(ctx context.Context, from, to string, includeBooked bool) (*dto.SlotListResponse, error) {
	grouped, err := u.availability.ListSlots(ctx, from, to, includeBooked, true)
	if err != nil {
		return nil, err
	}
	return converter.GroupedSlotsToResponse(grouped), nil
}

// ListAdminSlots lists every slot in the range with no window restrictions
func (u *slotUsecase) ListAdminSlots(ctx context.Context, from, to string) (*dto.SlotListResponse, error) {
	grouped, err := u.availability.ListSlots(ctx, from, to, true, false)
	if err != nil {
		return nil, err
	}
	return converter.GroupedSlotsToResponse(grouped), nil
}
