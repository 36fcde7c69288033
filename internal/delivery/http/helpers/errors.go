package helpers

import (
	"errors"
	"net/http"

	"happymemories/internal/domain"
)

// ErrorStatus maps a service error onto an HTTP status and an error code.
// An incomplete cascade is always internal, whatever storage error stopped it.
func ErrorStatus(err error) (int, string) {
	var cerr *domain.CascadeError
	switch {
	case errors.As(err, &cerr):
		return http.StatusInternalServerError, ErrCodeInternalError
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, domain.ErrTemporal):
		return http.StatusUnprocessableEntity, ErrCodeTemporal
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteServiceError writes err with the status from ErrorStatus. Validation errors carry their
// field map. Internal and storage errors are reported with a generic message.
func WriteServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSONFieldErrors(w, "invalid input", verr.FieldMap())
		return
	}
	status, code := ErrorStatus(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		message = "internal server error"
	case http.StatusServiceUnavailable:
		message = "storage temporarily unavailable"
	}
	WriteJSONError(w, status, code, message)
}
