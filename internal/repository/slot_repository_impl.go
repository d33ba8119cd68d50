package repository

import (
	"errors"
	"time"

	"clinic-slot-booking/internal/domain/entity"
	domainRepo "clinic-slot-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type slotRepository struct{}

func NewSlotRepository() domainRepo.SlotRepository {
	return &slotRepository{}
}

// Create inserts a slot. The uq_slots_window unique index rejects a
// second slot with an identical (start_at, end_at) pair; the error
// surfaces as gorm.ErrDuplicatedKey.
func (r *slotRepository) Create(db *gorm.DB, slot *entity.Slot) error {
	return db.Create(slot).Error
}

func (r *slotRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Slot, error) {
	var slot entity.Slot
	err := db.Where("id = ?", id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) FindInRange(db *gorm.DB, from, to time.Time, includeBooked bool) ([]entity.Slot, error) {
	var slots []entity.Slot
	query := db.Where("start_at >= ? AND start_at <= ?", from, to)
	if !includeBooked {
		query = query.Where("is_booked = ?", false)
	}
	err := query.Order("start_at ASC").Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// SetBooked flips the denormalized availability flag.
// Returns affected rows: 0 means the slot id does not exist.
func (r *slotRepository) SetBooked(db *gorm.DB, id uuid.UUID, booked bool) (int64, error) {
	result := db.Model(&entity.Slot{}).
		Where("id = ?", id).
		Update("is_booked", booked)
	return result.RowsAffected, result.Error
}

// Delete removes a slot only while it is unbooked, guarding against a
// delete racing a concurrent booking of the same slot.
func (r *slotRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Where("id = ? AND is_booked = ?", id, false).Delete(&entity.Slot{})
	return result.RowsAffected, result.Error
}
