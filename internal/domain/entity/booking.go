package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking represents a patient's claim on a slot.
//
// At most one confirmed booking may exist per slot; this is enforced by
// the partial unique index uq_bookings_slot_confirmed (slot_id WHERE
// status = 'confirmed'), which is the arbiter when concurrent requests
// race past the application-level availability check.
type Booking struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	SlotID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"slot_id"`
	Status    BookingStatus `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	CreatedAt time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Slot Slot `gorm:"foreignKey:SlotID" json:"slot,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// IsConfirmed checks if the booking is the active claim on its slot
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// IsCancelled checks if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// IsTerminal reports whether no further transition may leave the status.
// completed is reserved: nothing in the current flows transitions into it.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusCompleted
}
