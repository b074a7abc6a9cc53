package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"yochat/internal/model"
)

// Generic error codes
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Relationship and feed error codes, one per domain error kind
const (
	ErrCodeInvalidTarget    = "INVALID_TARGET"
	ErrCodeAlreadyFriends   = "ALREADY_FRIENDS"
	ErrCodeDuplicatePending = "DUPLICATE_PENDING"
	ErrCodeNotFriends       = "NOT_FRIENDS"
	ErrCodeDuplicateSave    = "DUPLICATE_SAVE"
	ErrCodeBlocked          = "BLOCKED"
	ErrCodeUsernameTaken    = "USERNAME_TAKEN"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent
			log.Printf("[HTTP] Failed to encode response: %v", err)
		}
	}
}

// WriteError writes {"error": {"code": "ERROR_CODE", "message": "..."}}
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

type errorMapping struct {
	target error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{model.ErrInvalidTarget, http.StatusBadRequest, ErrCodeInvalidTarget},
	{model.ErrAlreadyFriends, http.StatusConflict, ErrCodeAlreadyFriends},
	{model.ErrDuplicatePending, http.StatusConflict, ErrCodeDuplicatePending},
	{model.ErrRequestNotFound, http.StatusNotFound, ErrCodeNotFound},
	{model.ErrNotFriends, http.StatusNotFound, ErrCodeNotFriends},
	{model.ErrBlocked, http.StatusForbidden, ErrCodeBlocked},
	{model.ErrNotBlocked, http.StatusNotFound, ErrCodeNotFound},
	{model.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
	{model.ErrPostNotFound, http.StatusNotFound, ErrCodeNotFound},
	{model.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{model.ErrDuplicateSave, http.StatusConflict, ErrCodeDuplicateSave},
	{model.ErrSavedPostNotFound, http.StatusNotFound, ErrCodeNotFound},
	{model.ErrNotificationNotFound, http.StatusNotFound, ErrCodeNotFound},
	{model.ErrUsernameExists, http.StatusConflict, ErrCodeUsernameTaken},
	{model.ErrInvalidUsername, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrPasswordTooShort, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrNothingToUpdate, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrNoImageProvided, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrTooManyImages, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrCaptionTooLong, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrInvalidImageKey, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrFileTooLarge, http.StatusBadRequest, model.CodeFileTooLarge},
	{model.ErrInvalidImageType, http.StatusBadRequest, model.CodeInvalidImageType},
	{model.ErrInvalidPlatform, http.StatusBadRequest, ErrCodeBadRequest},
	{model.ErrInvalidPushToken, http.StatusBadRequest, ErrCodeBadRequest},
}

// WriteDomainError maps a service error to its HTTP status and code.
// Unrecognized errors are logged and reported as 500 without leaking details.
func WriteDomainError(w http.ResponseWriter, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			WriteError(w, m.status, m.code, err.Error())
			return
		}
	}
	log.Printf("[HTTP] Unhandled error: %v", err)
	WriteInternalError(w, "Internal server error")
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteBadRequestWithCode writes a 400 Bad Request error with a custom code
func WriteBadRequestWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusBadRequest, code, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// WriteUnauthorizedWithCode writes a 401 Unauthorized error with a custom code
func WriteUnauthorizedWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusUnauthorized, code, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}
