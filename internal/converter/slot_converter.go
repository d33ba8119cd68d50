package converter

import (
	"clinic-slot-booking/internal/delivery/dto"
	"clinic-slot-booking/internal/domain/entity"
)

// SlotToResponse converts a Slot entity to SlotResponse DTO
func SlotToResponse(slot *entity.Slot) *dto.SlotResponse {
	if slot == nil {
		return nil
	}

	return &dto.SlotResponse{
		ID:              slot.ID,
		StartAt:         slot.StartAt,
		EndAt:           slot.EndAt,
		DurationMinutes: slot.DurationMinutes(),
		IsBooked:        slot.IsBooked,
		CreatedAt:       slot.CreatedAt,
	}
}

// GroupedSlotsToResponse converts date-grouped slots to a SlotListResponse DTO
func GroupedSlotsToResponse(grouped map[string][]entity.Slot) *dto.SlotListResponse {
	days := make(map[string][]dto.SlotResponse, len(grouped))
	total := 0
	for day, slots := range grouped {
		responses := make([]dto.SlotResponse, len(slots))
		for i, slot := range slots {
			responses[i] = *SlotToResponse(&slot)
		}
		days[day] = responses
		total += len(responses)
	}

	return &dto.SlotListResponse{
		Days:  days,
		Total: total,
	}
}
