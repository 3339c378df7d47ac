package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/notification"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/rs/zerolog"
)

type ParticipantHandler struct {
	partyRepo       repository.PartyRepository
	participantRepo repository.ParticipantRepository
	requestRepo     repository.JoinRequestRepository
	invitationRepo  repository.InvitationRepository
	userRepo        repository.UserRepository
	notifications   notification.Service
	logger          zerolog.Logger
}

func NewParticipantHandler(
	partyRepo repository.PartyRepository,
	participantRepo repository.ParticipantRepository,
	requestRepo repository.JoinRequestRepository,
	invitationRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	notifications notification.Service,
	logger zerolog.Logger,
) *ParticipantHandler {
	return &ParticipantHandler{
		partyRepo:       partyRepo,
		participantRepo: participantRepo,
		requestRepo:     requestRepo,
		invitationRepo:  invitationRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		logger:          logger.With().Str("handler", "participant").Logger(),
	}
}

type joinRequestPayload struct {
	NumGuests int `json:"num_guests"`
}

// Join admits the caller to a party, either directly (PUBLIC mode or an
// approved request) or through an invitation token passed as ?token=.
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	var payload joinRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err != io.EOF {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.NumGuests < 0 {
		http.Error(w, "num_guests must not be negative", http.StatusBadRequest)
		return
	}

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrSelfJoin, "the host already takes part in the party"))
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token != "" {
		h.joinViaInvitation(w, r, party, userID, payload.NumGuests, token)
		return
	}

	hasApproved, err := h.requestRepo.HasApprovedRequest(r.Context(), partyID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	decision := models.CanJoin(party, userID, false, hasApproved, nil, time.Now())
	if !decision.CanJoin {
		// The repository reports ALREADY_PARTICIPANT itself; everything else
		// is a privacy denial.
		if party.Privacy == models.PrivacyClosed {
			writeError(w, models.NewAppError(models.ErrDuplicateRequest, "%s", decision.Reason))
			return
		}
		writeError(w, models.NewAppError(models.ErrInvitationNotFound, "%s", decision.Reason))
		return
	}

	participant, err := h.participantRepo.Join(r.Context(), partyID, userID, payload.NumGuests)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifyJoin(r, party, userID, false)
	writeJSON(w, http.StatusCreated, participant)
}

func (h *ParticipantHandler) joinViaInvitation(w http.ResponseWriter, r *http.Request, party models.Party, userID string, numGuests int, token string) {
	participant, _, err := h.invitationRepo.Redeem(r.Context(), party.ID, HashInvitationToken(token), userID, numGuests, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifyJoin(r, party, userID, true)
	writeJSON(w, http.StatusCreated, participant)
}

func (h *ParticipantHandler) notifyJoin(r *http.Request, party models.Party, userID string, viaInvitation bool) {
	name := userID
	if user, err := h.userRepo.GetUserByID(r.Context(), userID); err == nil {
		name = user.Name
		if name == "" {
			name = user.Email
		}
	}
	var err error
	if viaInvitation {
		err = h.notifications.NotifyInvitationRedeemed(r.Context(), party.HostID, party.ID, party.Name, name)
	} else {
		err = h.notifications.NotifyParticipantJoined(r.Context(), party.HostID, party.ID, party.Name, name)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("party_id", party.ID).Msg("failed to publish join notification")
	}
}

// Leave removes the caller's own participation and their contributions.
func (h *ParticipantHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.participantRepo.Leave(r.Context(), partyID, userID); err != nil {
		writeError(w, err)
		return
	}

	name := userID
	if user, err := h.userRepo.GetUserByID(r.Context(), userID); err == nil && user.Name != "" {
		name = user.Name
	}
	if err := h.notifications.NotifyParticipantLeft(r.Context(), party.HostID, party.ID, party.Name, name); err != nil {
		h.logger.Warn().Err(err).Str("party_id", party.ID).Msg("failed to publish leave notification")
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove lets the host drop a participant from the party.
func (h *ParticipantHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	vars := mux.Vars(r)
	partyID := vars["partyID"]
	participantID := vars["participantID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may remove participants"))
		return
	}

	participant, err := h.participantRepo.GetByID(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	if participant.PartyID != partyID {
		writeError(w, models.NewAppError(models.ErrNotFound, "participant %s not found", participantID))
		return
	}

	removed, err := h.participantRepo.Remove(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.notifications.NotifyParticipantRemoved(r.Context(), removed.UserID, party.ID, party.Name); err != nil {
		h.logger.Warn().Err(err).Str("party_id", party.ID).Msg("failed to publish removal notification")
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateGuests edits a participant's guest count. Participants edit their
// own; the host may edit anyone's.
func (h *ParticipantHandler) UpdateGuests(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	vars := mux.Vars(r)
	partyID := vars["partyID"]
	participantID := vars["participantID"]

	var payload struct {
		NumGuests int `json:"num_guests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.NumGuests < 0 {
		http.Error(w, "num_guests must not be negative", http.StatusBadRequest)
		return
	}

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}

	participant, err := h.participantRepo.GetByID(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	if participant.PartyID != partyID {
		writeError(w, models.NewAppError(models.ErrNotFound, "participant %s not found", participantID))
		return
	}
	if participant.UserID != userID && !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotOwner, "only the participant or the host may edit the guest count"))
		return
	}

	updated, err := h.participantRepo.UpdateGuestCount(r.Context(), participantID, payload.NumGuests)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
