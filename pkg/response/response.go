package response

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a stable machine-readable code alongside the
// human-readable message, so clients can branch without string matching.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, code, message string) {
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}

func ValidationError(w http.ResponseWriter, details interface{}) {
	JSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: "Validation failed",
		Error:   &ErrorBody{Code: "ValidationFailed", Message: "Validation failed", Details: details},
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, "Unauthorized", message)
}

func NotFound(w http.ResponseWriter, code, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, code, message)
}

func Conflict(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusConflict, code, message)
}

func InternalServerError(w http.ResponseWriter, code, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, code, message)
}

func Forbidden(w http.ResponseWriter, code, message string) {
	if message == "" {
		message = "Forbidden"
	}
	Error(w, http.StatusForbidden, code, message)
}
