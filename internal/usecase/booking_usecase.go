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
	ErrMissingSlotID           = errors.New("slot id is required")
	ErrInvalidSlotID           = errors.New("slot id is not a valid identifier")
	ErrSlotAlreadyBooked       = errors.New("slot is already booked")
	ErrPastSlot                = errors.New("cannot book a slot in the past")
	ErrOverlappingBooking      = errors.New("slot overlaps an existing confirmed booking")
	ErrInvalidBookingID        = errors.New("booking id is not a valid identifier")
	ErrBookingNotFound         = errors.New("booking not found")
	ErrInsufficientPermissions = errors.New("booking does not belong to you")
	ErrPastBooking             = errors.New("cannot cancel a past appointment")
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	ErrSlotUpdateFailed        = errors.New("failed to update slot availability")
)

type BookingUsecase interface {
	BookSlot(ctx context.Context, userID uuid.UUID, rawSlotID string) (*dto.BookingResponse, error)
	CancelBooking(ctx context.Context, requesterID uuid.UUID, requesterRoleID int, rawBookingID string) (*dto.BookingResponse, error)
	GetMyBookings(ctx context.Context, userID uuid.UUID) (*dto.BookingListResponse, error)
	GetAllBookings(ctx context.Context) (*dto.BookingListResponse, error)
}

type bookingUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	slotRepo     repository.SlotRepository
	bookingRepo  repository.BookingRepository
	availability *service.AvailabilityService
	audit        service.AuditService
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	slotRepo repository.SlotRepository,
	bookingRepo repository.BookingRepository,
	availability *service.AvailabilityService,
	audit service.AuditService,
) BookingUsecase {
	return &bookingUsecase{
		db:           db,
		log:          log,
		slotRepo:     slotRepo,
		bookingRepo:  bookingRepo,
		availability: availability,
		audit:        audit,
	}
}

// BookSlot claims a slot for the patient.
//
// Flow:
// 1. Validate the slot id
// 2. Load the slot; reject missing, already-booked, or past slots
// 3. Reject windows that collide with the patient's confirmed bookings
// 4. Insert the confirmed booking and flip the slot flag in one
//    transaction
//
// Steps 2-3 are advisory pre-checks: two requests can pass them for the
// same slot simultaneously. The partial unique index on confirmed
// bookings decides that race at insert time; the loser's transaction
// rolls back, so the slot flag is never left set by a failed claim.
func (u *bookingUsecase) BookSlot(ctx context.Context, userID uuid.UUID, rawSlotID string) (*dto.BookingResponse, error) {
	if rawSlotID == "" {
		return nil, ErrMissingSlotID
	}
	slotID, err := uuid.Parse(rawSlotID)
	if err != nil {
		return nil, ErrInvalidSlotID
	}

	slot, err := u.slotRepo.FindByID(u.db.WithContext(ctx), slotID)
	if err != nil {
		u.log.Warnf("Failed to find slot %s: %+v", slotID, err)
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	// Fast, friendly rejection in the common case; the unique index
	// below is what actually prevents the double booking.
	if slot.IsBooked {
		return nil, ErrSlotAlreadyBooked
	}

	if slot.IsPast(time.Now().UTC()) {
		return nil, ErrPastSlot
	}

	overlaps, err := u.availability.HasOverlap(ctx, userID, slot)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, ErrOverlappingBooking
	}

	booking := &entity.Booking{
		UserID: userID,
		SlotID: slot.ID,
		Status: entity.BookingStatusConfirmed,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.bookingRepo.Create(tx, booking); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race: another confirmed booking for this slot
			// committed between our pre-check and this insert.
			return nil, ErrSlotAlreadyBooked
		}
		u.log.Warnf("Failed to insert booking for slot %s: %+v", slot.ID, err)
		return nil, err
	}

	affected, err := u.slotRepo.SetBooked(tx, slot.ID, true)
	if err != nil {
		u.log.Errorf("Failed to flag slot %s as booked, rolling back booking %s: %+v", slot.ID, booking.ID, err)
		return nil, ErrSlotUpdateFailed
	}
	if affected == 0 {
		u.log.Errorf("Slot %s vanished while booking %s was being created, rolling back", slot.ID, booking.ID)
		u.audit.LogIntegrityFault(ctx, &userID, "slot missing during booking create", entity.JSON{
			"slot_id":    slot.ID.String(),
			"booking_id": booking.ID.String(),
		})
		return nil, ErrSlotUpdateFailed
	}

	if err := u.audit.LogAction(ctx, tx, &userID, entity.AuditActionBookingCreate, entity.JSON{
		"booking_id": booking.ID.String(),
		"slot_id":    slot.ID.String(),
		"start_at":   slot.StartAt,
		"end_at":     slot.EndAt,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit booking for slot %s: %+v", slot.ID, err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, err
	}

	u.log.Infof("Booking created: id=%s, slot=%s, user=%s", booking.ID, slot.ID, userID)

	booking.Slot = *slot
	booking.Slot.IsBooked = true
	return converter.BookingToResponse(booking), nil
}

// CancelBooking releases a slot. The requester must own the booking or
// hold the admin role. Both the status transition and the slot flag
// release run in one transaction: if the flag update fails the
// transaction rolls back and the booking stays confirmed, so the
// cancelled-booking/flagged-slot divergence cannot be introduced here.
func (u *bookingUsecase) CancelBooking(ctx context.Context, requesterID uuid.UUID, requesterRoleID int, rawBookingID string) (*dto.BookingResponse, error) {
	if rawBookingID == "" {
		return nil, ErrInvalidBookingID
	}
	bookingID, err := uuid.Parse(rawBookingID)
	if err != nil {
		return nil, ErrInvalidBookingID
	}

	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if booking.UserID != requesterID && requesterRoleID != entity.RoleIDAdmin {
		return nil, ErrInsufficientPermissions
	}

	slot, err := u.slotRepo.FindByID(u.db.WithContext(ctx), booking.SlotID)
	if err != nil {
		u.log.Warnf("Failed to find slot %s for booking %s: %+v", booking.SlotID, bookingID, err)
		return nil, err
	}
	if slot == nil {
		// The booking references a slot that no longer exists: the
		// records have diverged and an operator needs to look at it.
		u.log.Errorf("Booking %s references missing slot %s", bookingID, booking.SlotID)
		u.audit.LogIntegrityFault(ctx, &requesterID, "booking references missing slot", entity.JSON{
			"booking_id": bookingID.String(),
			"slot_id":    booking.SlotID.String(),
		})
		return nil, ErrSlotNotFound
	}

	if slot.IsPast(time.Now().UTC()) {
		return nil, ErrPastBooking
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.bookingRepo.UpdateStatus(tx, bookingID, entity.BookingStatusConfirmed, entity.BookingStatusCancelled)
	if err != nil {
		u.log.Warnf("Failed to cancel booking %s: %+v", bookingID, err)
		return nil, err
	}
	if affected == 0 {
		// Not confirmed anymore: a concurrent cancel got there first.
		return nil, ErrBookingAlreadyCancelled
	}

	affected, err = u.slotRepo.SetBooked(tx, slot.ID, false)
	if err != nil || affected == 0 {
		u.log.Errorf("Failed to release slot %s while cancelling booking %s (affected=%d): %+v", slot.ID, bookingID, affected, err)
		u.audit.LogIntegrityFault(ctx, &requesterID, "slot flag release failed on cancel", entity.JSON{
			"booking_id": bookingID.String(),
			"slot_id":    slot.ID.String(),
		})
		return nil, ErrSlotUpdateFailed
	}

	if err := u.audit.LogAction(ctx, tx, &requesterID, entity.AuditActionBookingCancel, entity.JSON{
		"booking_id": bookingID.String(),
		"slot_id":    slot.ID.String(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit cancellation of booking %s: %+v", bookingID, err)
		return nil, err
	}

	u.log.Infof("Booking cancelled: id=%s, slot=%s, by=%s", bookingID, slot.ID, requesterID)

	booking.Status = entity.BookingStatusCancelled
	booking.Slot = *slot
	booking.Slot.IsBooked = false
	return converter.BookingToResponse(booking), nil
}

// GetMyBookings returns the patient's bookings, newest first
func (u *bookingUsecase) GetMyBookings(ctx context.Context, userID uuid.UUID) (*dto.BookingListResponse, error) {
	bookings, err := u.bookingRepo.FindByUserID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find bookings for user %s: %+v", userID, err)
		return nil, err
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

// GetAllBookings returns every booking joined with user and slot,
// newest first (admin view)
func (u *bookingUsecase) GetAllBookings(ctx context.Context) (*dto.BookingListResponse, error) {
	bookings, err := u.bookingRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find all bookings: %+v", err)
		return nil, err
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}
