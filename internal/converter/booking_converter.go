package converter

import (
	"clinic-slot-booking/internal/delivery/dto"
	"clinic-slot-booking/internal/domain/entity"

	"github.com/google/uuid"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:        booking.ID,
		UserID:    booking.UserID,
		SlotID:    booking.SlotID,
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt,
		UpdatedAt: booking.UpdatedAt,
	}

	// Include the slot's time window if loaded
	if booking.Slot.ID != uuid.Nil {
		response.Slot = SlotToResponse(&booking.Slot)
	}

	// Include the owning user if loaded (admin listing)
	if booking.User.ID != uuid.Nil {
		response.User = &dto.UserSummaryResponse{
			ID:       booking.User.ID,
			Email:    booking.User.Email,
			FullName: booking.User.FullName,
		}
	}

	return response
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i, booking := range bookings {
		resp := BookingToResponse(&booking)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
