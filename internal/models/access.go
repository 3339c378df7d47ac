package models

import "time"

// Access is the capability set a caller holds on a party.
type Access struct {
	ViewParty        bool `json:"view_party"`
	JoinDirectly     bool `json:"join_directly"`
	ViewParticipants bool `json:"view_participants"`
	ViewDishes       bool `json:"view_dishes"`
	ViewAmounts      bool `json:"view_amounts"`
}

var fullAccess = Access{
	ViewParty:        true,
	JoinDirectly:     true,
	ViewParticipants: true,
	ViewDishes:       true,
	ViewAmounts:      true,
}

// ResolveAccess maps the party's privacy mode to a capability set for the
// caller. Hosts and admitted participants always hold full capability; for
// everyone else the fixed per-mode matrix applies.
func ResolveAccess(party Party, callerID string, isParticipant bool) Access {
	if party.IsHost(callerID) || isParticipant {
		return fullAccess
	}
	switch party.Privacy {
	case PrivacyPublic:
		return fullAccess
	case PrivacyClosed:
		return Access{
			ViewParty:        true,
			ViewParticipants: true,
			ViewDishes:       true,
			ViewAmounts:      true,
		}
	case PrivacyPrivate:
		return Access{ViewParty: true}
	}
	// Unknown modes grant nothing beyond existence.
	return Access{ViewParty: true}
}

// JoinDecision is the outcome of the composite direct-join eligibility
// check. ViaInvitation is set when a presented token is what grants entry.
type JoinDecision struct {
	CanJoin       bool        `json:"can_join"`
	ViaInvitation *Invitation `json:"via_invitation,omitempty"`
	Reason        string      `json:"reason,omitempty"`
}

// CanJoin decides whether a non-participant caller may join directly. Entry
// is granted by PUBLIC mode, an approved join request, or a currently valid
// invitation token. Hosts and existing participants cannot join again.
func CanJoin(party Party, callerID string, isParticipant, hasApprovedRequest bool, presented *Invitation, now time.Time) JoinDecision {
	if party.IsHost(callerID) {
		return JoinDecision{Reason: "host is already part of the party"}
	}
	if isParticipant {
		return JoinDecision{Reason: "caller is already a participant"}
	}
	if party.Privacy == PrivacyPublic {
		return JoinDecision{CanJoin: true}
	}
	if hasApprovedRequest {
		return JoinDecision{CanJoin: true}
	}
	if presented != nil && presented.PartyID == party.ID && presented.Redeemable(now) {
		return JoinDecision{CanJoin: true, ViaInvitation: presented}
	}
	switch party.Privacy {
	case PrivacyClosed:
		return JoinDecision{Reason: "party requires an approved join request"}
	default:
		return JoinDecision{Reason: "party requires a valid invitation"}
	}
}
