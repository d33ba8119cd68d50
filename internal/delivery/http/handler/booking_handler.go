package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic-slot-booking/internal/delivery/dto"
	"clinic-slot-booking/internal/delivery/http/middleware"
	"clinic-slot-booking/internal/usecase"
	"clinic-slot-booking/pkg/response"
	"clinic-slot-booking/pkg/validator"

	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "InvalidRequestBody", "Invalid request body")
		return
	}

	booking, err := h.bookingUsecase.BookSlot(r.Context(), userID, req.SlotID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingSlotID):
			response.Error(w, http.StatusBadRequest, "MissingSlotId", "Slot id is required")
		case errors.Is(err, usecase.ErrInvalidSlotID):
			response.Error(w, http.StatusBadRequest, "InvalidSlotId", "Slot id is not a valid identifier")
		case errors.Is(err, usecase.ErrSlotNotFound):
			response.NotFound(w, "SlotNotFound", "Slot not found")
		case errors.Is(err, usecase.ErrSlotAlreadyBooked):
			response.Conflict(w, "SlotAlreadyBooked", "Slot is already booked")
		case errors.Is(err, usecase.ErrPastSlot):
			response.Error(w, http.StatusBadRequest, "PastSlot", "Cannot book a slot in the past")
		case errors.Is(err, usecase.ErrOverlappingBooking):
			response.Conflict(w, "OverlappingBooking", "Slot overlaps one of your confirmed bookings")
		case errors.Is(err, usecase.ErrSlotUpdateFailed):
			response.InternalServerError(w, "SlotUpdateFailed", "Failed to update slot availability")
		default:
			response.InternalServerError(w, "BookingFailed", "Failed to create booking")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}
	roleID, ok := middleware.GetRoleIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Role information not found")
		return
	}

	vars := mux.Vars(r)
	booking, err := h.bookingUsecase.CancelBooking(r.Context(), userID, roleID, vars["id"])
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidBookingID):
			response.Error(w, http.StatusBadRequest, "InvalidBookingId", "Booking id is not a valid identifier")
		case errors.Is(err, usecase.ErrBookingNotFound):
			response.NotFound(w, "BookingNotFound", "Booking not found")
		case errors.Is(err, usecase.ErrInsufficientPermissions):
			response.Forbidden(w, "InsufficientPermissions", "Booking does not belong to you")
		case errors.Is(err, usecase.ErrSlotNotFound):
			response.NotFound(w, "SlotNotFound", "Booking references a missing slot")
		case errors.Is(err, usecase.ErrPastBooking):
			response.Error(w, http.StatusBadRequest, "PastBooking", "Cannot cancel a past appointment")
		case errors.Is(err, usecase.ErrBookingAlreadyCancelled):
			response.Conflict(w, "BookingAlreadyCancelled", "Booking is already cancelled")
		case errors.Is(err, usecase.ErrSlotUpdateFailed):
			response.InternalServerError(w, "SlotUpdateFailed", "Failed to update slot availability")
		default:
			response.InternalServerError(w, "CancelFailed", "Failed to cancel booking")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled successfully", booking)
}

func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	bookings, err := h.bookingUsecase.GetMyBookings(r.Context(), userID)
	if err != nil {
		response.InternalServerError(w, "ListFailed", "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) GetAllBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingUsecase.GetAllBookings(r.Context())
	if err != nil {
		response.InternalServerError(w, "ListFailed", "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}
