package repository

import (
	"clinic-slot-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(db *gorm.DB, booking *entity.Booking) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Booking, error)
	FindAll(db *gorm.DB) ([]entity.Booking, error)
	FindConfirmedByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Booking, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.BookingStatus) (int64, error)
}
