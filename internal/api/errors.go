package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-roi/internal/device"
	"github.com/nerrad567/gray-logic-roi/internal/roi"
	"github.com/nerrad567/gray-logic-roi/internal/schedule"
	"github.com/nerrad567/gray-logic-roi/internal/snapshot"
	"github.com/nerrad567/gray-logic-roi/internal/validation"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeConflict       = "conflict"
	ErrCodeReadOnly       = "read_only"
	ErrCodeNoSlot         = "no_available_slot"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeCaptureTimeout = "capture_timeout"
	ErrCodeCaptureFailed  = "capture_failed"
	ErrCodeUnavailable    = "service_unavailable"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// validationErrors are caller mistakes reported with their own message.
var validationErrors = []error{
	device.ErrInvalidDevice,
	roi.ErrInvalidPointFormat,
	roi.ErrRuleNormalizationFailed,
	roi.ErrInvalidRule,
	roi.ErrTooManyRules,
	roi.ErrTooManyZoomRules,
	roi.ErrDuplicateRoiID,
	schedule.ErrScheduleOverlap,
	schedule.ErrInvalidTimeOfDay,
	schedule.ErrEmptyRange,
	validation.ErrValidation,
	snapshot.ErrMissingURL,
}

// writeServiceError maps a domain error to its HTTP response. Unknown
// errors become a 500 carrying fallback rather than the internal message.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, roi.ErrRuleNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, device.ErrExternalDeviceReadOnly):
		writeError(w, http.StatusConflict, ErrCodeReadOnly, "device is managed upstream and cannot be modified")
	case errors.Is(err, device.ErrDeviceExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "device already exists")
	case errors.Is(err, schedule.ErrNoAvailableTimeSlot):
		writeError(w, http.StatusConflict, ErrCodeNoSlot, "no available time slot")
	case errors.Is(err, snapshot.ErrCaptureTimeout):
		writeError(w, http.StatusGatewayTimeout, ErrCodeCaptureTimeout, "camera did not deliver a frame in time")
	case errors.Is(err, snapshot.ErrEmptyCapture),
		errors.Is(err, snapshot.ErrTempFileMissing),
		errors.Is(err, snapshot.ErrCaptureFailed):
		s.logger.Warn("snapshot capture failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeCaptureFailed, "could not capture a frame from the camera")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeInternalError(w, fallback)
	}
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
