package repository

import (
	"time"

	"clinic-slot-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotRepository interface {
	Create(db *gorm.DB, slot *entity.Slot) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Slot, error)
	FindInRange(db *gorm.DB, from, to time.Time, includeBooked bool) ([]entity.Slot, error)
	SetBooked(db *gorm.DB, id uuid.UUID, booked bool) (int64, error)
	Delete(db *gorm.DB, id uuid.UUID) (int64, error)
}
