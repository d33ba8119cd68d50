package handler

import (
	"net/http"

	"clinic-slot-booking/internal/usecase"
	"clinic-slot-booking/pkg/response"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{auditLogUsecase: auditLogUsecase}
}

func (h *AuditLogHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	logs, err := h.auditLogUsecase.GetRecent(r.Context())
	if err != nil {
		response.InternalServerError(w, "ListFailed", "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", logs)
}
