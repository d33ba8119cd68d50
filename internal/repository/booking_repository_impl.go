package repository

import (
	"errors"

	"clinic-slot-booking/internal/domain/entity"
	domainRepo "clinic-slot-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

// Create inserts a booking. For status 'confirmed' the partial unique
// index uq_bookings_slot_confirmed admits at most one row per slot;
// the losing insert of a race gets gorm.ErrDuplicatedKey regardless of
// what the application-level pre-check observed.
func (r *bookingRepository) Create(db *gorm.DB, booking *entity.Booking) error {
	return db.Create(booking).Error
}

func (r *bookingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Preload("Slot").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Preload("Slot").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindAll(db *gorm.DB) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Preload("User").Preload("Slot").
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindConfirmedByUserID returns the user's active claims with their
// slot windows loaded, for overlap detection.
func (r *bookingRepository) FindConfirmedByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Preload("Slot").
		Where("user_id = ? AND status = ?", userID, entity.BookingStatusConfirmed).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus transitions a booking atomically, guarded by the
// expected current status. Returns affected rows: 1 = success,
// 0 = booking absent or not in the expected status (prevents
// double-cancel races).
func (r *bookingRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.BookingStatus) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
