package api

import (
	"errors"
	"net/http"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string                `json:"error"`
	Message string                `json:"message"`
	TaskID  int64                 `json:"task_id,omitempty"`
	Reason  domain.ConflictReason `json:"reason,omitempty"`
}

// StatusFor maps an application error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInputShape),
		errors.Is(err, domain.ErrEndBeforeStart):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAssignment),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAssignmentCompleted),
		errors.Is(err, domain.ErrTaskCompleted),
		errors.Is(err, domain.ErrTaskDeleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInfeasible):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *AllocationHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
	}
	if se, ok := domain.AsSchedulingError(err); ok {
		body.TaskID = se.TaskID
		body.Reason = se.Reason
	}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Message: message,
	})
}
