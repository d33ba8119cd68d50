package service

import (
	"context"

	"clinic-slot-booking/internal/domain/entity"
	"clinic-slot-booking/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditService interface {
	LogAction(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) error
	LogIntegrityFault(ctx context.Context, userID *uuid.UUID, detail string, metadata entity.JSON)
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogAction records an audit entry, joining the caller's transaction so
// the trail commits or rolls back with the domain write.
func (s *auditService) LogAction(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) error {
	auditLog := &entity.AuditLog{
		UserID:   userID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}

// LogIntegrityFault records a divergence between the denormalized slot
// flag and the booking records. It writes outside any transaction on
// purpose: the fault trail must survive the rollback of the operation
// that detected it.
func (s *auditService) LogIntegrityFault(ctx context.Context, userID *uuid.UUID, detail string, metadata entity.JSON) {
	if metadata == nil {
		metadata = entity.JSON{}
	}
	metadata["detail"] = detail

	auditLog := &entity.AuditLog{
		UserID:   userID,
		Action:   entity.AuditActionIntegrityFault,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(s.db.WithContext(ctx), auditLog); err != nil {
		s.log.Errorf("Failed to record integrity fault (%s): %+v", detail, err)
	}
}
