package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type AddSlotRequest struct {
	StartAt string `json:"start_at"` // ISO-8601 instant
	EndAt   string `json:"end_at"`   // ISO-8601 instant
}

type GenerateSlotsRequest struct {
	Days int `json:"days"`
}

// Response DTOs

type SlotResponse struct {
	ID              uuid.UUID `json:"id"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	DurationMinutes int       `json:"duration_minutes"`
	IsBooked        bool      `json:"is_booked"`
	CreatedAt       time.Time `json:"created_at"`
}

// SlotListResponse groups slots by calendar date (YYYY-MM-DD), each
// day's slots ordered by start time.
type SlotListResponse struct {
	Days  map[string][]SlotResponse `json:"days"`
	Total int                       `json:"total"`
}

type GenerateSlotsResponse struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
}
