package models

import (
	"strings"
	"time"
)

// JoinRequestStatus is the state of a join request. PENDING is the only
// non-terminal state.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// ParseDecision accepts the two terminal statuses as a host decision.
func ParseDecision(raw string) (JoinRequestStatus, bool) {
	switch JoinRequestStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case JoinRequestApproved:
		return JoinRequestApproved, true
	case JoinRequestRejected:
		return JoinRequestRejected, true
	}
	return "", false
}

// JoinRequest is a pending ask to join a party, decided by the host.
// A request transitions out of PENDING at most once.
type JoinRequest struct {
	ID        string            `json:"id"`
	PartyID   string            `json:"party_id"`
	UserID    string            `json:"user_id"`
	NumGuests int               `json:"num_guests"`
	Message   string            `json:"message,omitempty"`
	Status    JoinRequestStatus `json:"status"`
	DecidedAt *time.Time        `json:"decided_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsDecided reports whether the request reached a terminal state.
func (r JoinRequest) IsDecided() bool {
	return r.Status != JoinRequestPending
}
