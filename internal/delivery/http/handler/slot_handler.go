package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic-slot-booking/internal/delivery/dto"
	"clinic-slot-booking/internal/delivery/http/middleware"
	"clinic-slot-booking/internal/service"
	"clinic-slot-booking/internal/usecase"
	"clinic-slot-booking/pkg/response"
	"clinic-slot-booking/pkg/validator"

	"github.com/gorilla/mux"
)

type SlotHandler struct {
	slotUsecase usecase.SlotUsecase
	validator   *validator.CustomValidator
}

func NewSlotHandler(slotUsecase usecase.SlotUsecase, validator *validator.CustomValidator) *SlotHandler {
	return &SlotHandler{
		slotUsecase: slotUsecase,
		validator:   validator,
	}
}

func (h *SlotHandler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	var req dto.GenerateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "InvalidRequestBody", "Invalid request body")
		return
	}

	result, err := h.slotUsecase.GenerateSlots(r.Context(), adminID, req.Days)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidDays) {
			response.Error(w, http.StatusBadRequest, "InvalidDays", "Days must be between 1 and 30")
			return
		}
		response.InternalServerError(w, "GenerateFailed", "Failed to generate slots")
		return
	}

	response.Success(w, http.StatusCreated, "Slots generated successfully", result)
}

func (h *SlotHandler) AddSlot(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	var req dto.AddSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "InvalidRequestBody", "Invalid request body")
		return
	}

	slot, err := h.slotUsecase.AddSlot(r.Context(), adminID, req.StartAt, req.EndAt)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingSlotDates):
			response.Error(w, http.StatusBadRequest, "MissingDates", "start_at and end_at are required")
		case errors.Is(err, usecase.ErrInvalidInstant):
			response.Error(w, http.StatusBadRequest, "InvalidDateFormat", "Invalid instant format, use ISO-8601")
		case errors.Is(err, usecase.ErrInvalidTimeRange):
			response.Error(w, http.StatusBadRequest, "InvalidTimeRange", "start_at must be before end_at")
		case errors.Is(err, usecase.ErrSlotExists):
			response.Conflict(w, "SlotExists", "A slot with this time window already exists")
		default:
			response.InternalServerError(w, "CreateFailed", "Failed to create slot")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Slot created successfully", slot)
}

func (h *SlotHandler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	vars := mux.Vars(r)
	err := h.slotUsecase.RemoveSlot(r.Context(), adminID, vars["id"])
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidSlotID):
			response.Error(w, http.StatusBadRequest, "InvalidSlotId", "Slot id is not a valid identifier")
		case errors.Is(err, usecase.ErrSlotNotFound):
			response.NotFound(w, "SlotNotFound", "Slot not found")
		case errors.Is(err, usecase.ErrSlotBooked):
			response.Conflict(w, "SlotBooked", "Slot has a confirmed booking and cannot be removed")
		default:
			response.InternalServerError(w, "DeleteFailed", "Failed to remove slot")
		}
		return
	}

	response.Success(w, http.StatusOK, "Slot removed successfully", nil)
}

func (h *SlotHandler) ListPublicSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	includeBooked := query.Get("include_booked") == "true"

	slots, err := h.slotUsecase.ListPublicSlots(r.Context(), query.Get("from"), query.Get("to"), includeBooked)
	if err != nil {
		h.writeListError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Slots retrieved successfully", slots)
}

func (h *SlotHandler) ListAdminSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	slots, err := h.slotUsecase.ListAdminSlots(r.Context(), query.Get("from"), query.Get("to"))
	if err != nil {
		h.writeListError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Slots retrieved successfully", slots)
}

func (h *SlotHandler) writeListError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingDates):
		response.Error(w, http.StatusBadRequest, "MissingDates", "Both from and to dates are required")
	case errors.Is(err, service.ErrInvalidDateFormat):
		response.Error(w, http.StatusBadRequest, "InvalidDateFormat", "Invalid date format, use YYYY-MM-DD")
	case errors.Is(err, service.ErrPastDate):
		response.Error(w, http.StatusBadRequest, "PastDate", "From date cannot be in the past")
	case errors.Is(err, service.ErrDateRangeTooLarge):
		response.Error(w, http.StatusBadRequest, "DateRangeTooLarge", "Date range cannot exceed 7 days")
	default:
		response.InternalServerError(w, "ListFailed", "Failed to get slots")
	}
}
