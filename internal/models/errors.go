package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the expected business failures of the participation
// and contribution operations. Handlers map kinds to HTTP statuses.
type ErrorKind string

const (
	// Admission
	ErrCapacityExceeded   ErrorKind = "CAPACITY_EXCEEDED"
	ErrAlreadyParticipant ErrorKind = "ALREADY_PARTICIPANT"
	ErrSelfJoin           ErrorKind = "SELF_JOIN"

	// Invitations
	ErrInvitationNotFound  ErrorKind = "INVITATION_NOT_FOUND"
	ErrInvitationExpired   ErrorKind = "INVITATION_EXPIRED"
	ErrInvitationExhausted ErrorKind = "INVITATION_EXHAUSTED"

	// Join requests
	ErrDuplicateRequest ErrorKind = "DUPLICATE_REQUEST"
	ErrNotHost          ErrorKind = "NOT_HOST"
	ErrAlreadyDecided   ErrorKind = "ALREADY_DECIDED"

	// Contributions
	ErrNotParticipant   ErrorKind = "NOT_PARTICIPANT"
	ErrInvalidAmount    ErrorKind = "INVALID_AMOUNT"
	ErrExceedsRemaining ErrorKind = "EXCEEDS_REMAINING"
	ErrNotOwner         ErrorKind = "NOT_OWNER"

	// Store-level
	ErrNotFound         ErrorKind = "NOT_FOUND"
	ErrConflict         ErrorKind = "CONFLICT"
	ErrStoreUnavailable ErrorKind = "STORE_UNAVAILABLE"
)

// AppError is a typed business failure. Operations return it instead of
// panicking or using sentinel strings; no partial state is committed when
// one is returned.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewAppError builds an AppError with a formatted message.
func NewAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, defaulting to STORE_UNAVAILABLE for
// anything that is not an AppError since unexpected store failures are the
// only other error class that reaches callers.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrStoreUnavailable
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
