package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/potlucky/potluck-api/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// writeError renders a typed business failure with the matching HTTP
// status. Anything that is not an AppError is reported as a store failure.
func writeError(w http.ResponseWriter, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Kind:    models.ErrStoreUnavailable,
			Message: "the operation could not be completed, retry later",
		})
		return
	}
	writeJSON(w, statusForKind(appErr.Kind), errorResponse{Kind: appErr.Kind, Message: appErr.Message})
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrSelfJoin, models.ErrInvalidAmount:
		return http.StatusBadRequest
	case models.ErrNotHost, models.ErrNotOwner, models.ErrNotParticipant:
		return http.StatusForbidden
	case models.ErrNotFound, models.ErrInvitationNotFound:
		return http.StatusNotFound
	case models.ErrCapacityExceeded, models.ErrAlreadyParticipant, models.ErrDuplicateRequest,
		models.ErrAlreadyDecided, models.ErrInvitationExhausted, models.ErrExceedsRemaining,
		models.ErrConflict:
		return http.StatusConflict
	case models.ErrInvitationExpired:
		return http.StatusGone
	case models.ErrStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
