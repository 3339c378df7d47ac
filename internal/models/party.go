package models

import (
	"strings"
	"time"
)

// PrivacyMode controls who can see and join a party.
type PrivacyMode string

const (
	// PrivacyPublic parties are open: anyone may view and join directly.
	PrivacyPublic PrivacyMode = "PUBLIC"
	// PrivacyClosed parties are visible but joining requires host approval.
	PrivacyClosed PrivacyMode = "CLOSED"
	// PrivacyPrivate parties hide their details and admit by invitation only.
	PrivacyPrivate PrivacyMode = "PRIVATE"
)

// ParsePrivacyMode normalizes a raw value into a PrivacyMode.
func ParsePrivacyMode(raw string) (PrivacyMode, bool) {
	switch PrivacyMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case PrivacyPublic:
		return PrivacyPublic, true
	case PrivacyClosed:
		return PrivacyClosed, true
	case PrivacyPrivate:
		return PrivacyPrivate, true
	}
	return "", false
}

// Party is a hosted gathering. MaxParticipants is the seat ceiling counted
// in headcount (participants plus their guests); nil means unlimited.
type Party struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Date            time.Time   `json:"date"`
	Location        string      `json:"location,omitempty"`
	MaxParticipants *int        `json:"max_participants,omitempty"`
	Privacy         PrivacyMode `json:"privacy"`
	HostID          string      `json:"host_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsHost reports whether the given user owns the party.
func (p Party) IsHost(userID string) bool {
	return userID != "" && p.HostID == userID
}
