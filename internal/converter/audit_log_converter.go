package converter

import (
	"clinic-slot-booking/internal/delivery/dto"
	"clinic-slot-booking/internal/domain/entity"
)

// AuditLogsToResponses converts audit log entities to DTOs
func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = dto.AuditLogResponse{
			ID:        log.ID,
			UserID:    log.UserID,
			Action:    log.Action,
			Metadata:  log.Metadata,
			CreatedAt: log.CreatedAt,
		}
	}
	return responses
}
