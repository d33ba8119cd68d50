package usecase

import (
	"context"

	"clinic-slot-booking/internal/converter"
	"clinic-slot-booking/internal/delivery/dto"
	"clinic-slot-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const auditLogPageSize = 100

type AuditLogUsecase interface {
	GetRecent(ctx context.Context) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditLogUsecase {
	return &auditLogUsecase{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// GetRecent returns the latest audit entries for operator review
func (u *auditLogUsecase) GetRecent(ctx context.Context) (*dto.AuditLogListResponse, error) {
	logs, err := u.auditRepo.FindRecent(u.db.WithContext(ctx), auditLogPageSize)
	if err != nil {
		u.log.Warnf("Failed to load audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
