package http

import (
	"errors"
	"net/http"

	"github.com/atinyakov/lotmarket/internal/common"
)

// statusForError maps the shared sentinel errors onto HTTP statuses.
// Anything unrecognized is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrUnsupportedExtension),
		errors.Is(err, common.ErrContentMismatch):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateUsername),
		errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the error as a plain-text response with the mapped
// status. Internal errors are not echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}
