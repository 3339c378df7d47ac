package models

import (
	"encoding/json"
	"time"
)

type NotificationSeverity string

const (
	NotificationSeverityInfo    NotificationSeverity = "info"
	NotificationSeverityWarning NotificationSeverity = "warning"
	NotificationSeverityError   NotificationSeverity = "error"
)

type NotificationEvent string

const (
	NotificationEventParticipantJoined    NotificationEvent = "participant_joined"
	NotificationEventParticipantLeft      NotificationEvent = "participant_left"
	NotificationEventParticipantRemoved   NotificationEvent = "participant_removed"
	NotificationEventJoinRequestSubmitted NotificationEvent = "join_request_submitted"
	NotificationEventJoinRequestDecided   NotificationEvent = "join_request_decided"
	NotificationEventInvitationRedeemed   NotificationEvent = "invitation_redeemed"
	NotificationEventPartyReminder        NotificationEvent = "party_reminder"
)

// Notification is a delivery intent emitted by a core operation: who to
// tell, what happened, and an opaque payload for the delivery channel. The
// core only persists the intent; delivery is the notifier's problem.
type Notification struct {
	ID          string               `json:"id" db:"id"`
	RecipientID *string              `json:"recipient_id,omitempty" db:"recipient_id"`
	EventType   NotificationEvent    `json:"event_type" db:"event_type"`
	Severity    NotificationSeverity `json:"severity" db:"severity"`
	Title       string               `json:"title" db:"title"`
	Message     string               `json:"message" db:"message"`
	Metadata    json.RawMessage      `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	ReadAt      *time.Time           `json:"read_at,omitempty" db:"read_at"`
}
