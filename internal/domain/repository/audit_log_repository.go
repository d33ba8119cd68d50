package repository

import (
	"clinic-slot-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, auditLog *entity.AuditLog) error
	FindRecent(db *gorm.DB, limit int) ([]entity.AuditLog, error)
}
