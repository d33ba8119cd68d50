package entity

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Slot represents a bookable appointment window.
//
// is_booked is a denormalized availability flag kept in sync with the
// bookings table inside the same transaction; the bookings table's
// partial unique index remains the source of truth for double-booking.
type Slot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StartAt   time.Time `gorm:"not null;uniqueIndex:uq_slots_window;index" json:"start_at"`
	EndAt     time.Time `gorm:"not null;uniqueIndex:uq_slots_window" json:"end_at"`
	IsBooked  bool      `gorm:"not null;default:false;index" json:"is_booked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Bookings []Booking `gorm:"foreignKey:SlotID" json:"bookings,omitempty"`
}

func (Slot) TableName() string {
	return "slots"
}

func (s *Slot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DurationMinutes returns the slot length in whole minutes
func (s *Slot) DurationMinutes() int {
	return int(math.Round(s.EndAt.Sub(s.StartAt).Minutes()))
}

// IsPast reports whether the slot's start has already passed
func (s *Slot) IsPast(now time.Time) bool {
	return s.StartAt.Before(now)
}
