package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateBookingRequest struct {
	SlotID string `json:"slot_id"`
}

// Response DTOs

type BookingResponse struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	SlotID    uuid.UUID            `json:"slot_id"`
	Status    string               `json:"status"`
	Slot      *SlotResponse        `json:"slot,omitempty"`
	User      *UserSummaryResponse `json:"user,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

type UserSummaryResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}
