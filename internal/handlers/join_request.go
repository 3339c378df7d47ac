package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/notification"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/rs/zerolog"
)

type JoinRequestHandler struct {
	partyRepo     repository.PartyRepository
	requestRepo   repository.JoinRequestRepository
	userRepo      repository.UserRepository
	notifications notification.Service
	logger        zerolog.Logger
}

func NewJoinRequestHandler(
	partyRepo repository.PartyRepository,
	requestRepo repository.JoinRequestRepository,
	userRepo repository.UserRepository,
	notifications notification.Service,
	logger zerolog.Logger,
) *JoinRequestHandler {
	return &JoinRequestHandler{
		partyRepo:     partyRepo,
		requestRepo:   requestRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger.With().Str("handler", "join_request").Logger(),
	}
}

type submitRequestPayload struct {
	NumGuests int    `json:"num_guests"`
	Message   string `json:"message,omitempty"`
}

// Submit files a join request for a CLOSED party.
func (h *JoinRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	var payload submitRequestPayload
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
	if party.Privacy == models.PrivacyPublic {
		http.Error(w, "public parties can be joined directly", http.StatusBadRequest)
		return
	}
	if party.Privacy == models.PrivacyPrivate {
		writeError(w, models.NewAppError(models.ErrInvitationNotFound, "private parties require an invitation"))
		return
	}

	request, err := h.requestRepo.Submit(r.Context(), partyID, userID, payload.NumGuests, strings.TrimSpace(payload.Message))
	if err != nil {
		writeError(w, err)
		return
	}

	name := userID
	if user, err := h.userRepo.GetUserByID(r.Context(), userID); err == nil && user.Name != "" {
		name = user.Name
	}
	if err := h.notifications.NotifyJoinRequestSubmitted(r.Context(), party.HostID, party.ID, party.Name, name); err != nil {
		h.logger.Warn().Err(err).Str("party_id", partyID).Msg("failed to publish join request notification")
	}

	writeJSON(w, http.StatusCreated, request)
}

// List returns a party's join requests. Host only.
func (h *JoinRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may review join requests"))
		return
	}

	requests, err := h.requestRepo.ListRequestsByParty(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// Decide approves or rejects a pending join request. Approval enrolls the
// requester, so it is subject to the capacity check and can fail with
// CAPACITY_EXCEEDED even for a valid decision.
func (h *JoinRequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	vars := mux.Vars(r)
	partyID := vars["partyID"]
	requestID := vars["requestID"]

	var payload struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	decision, ok := models.ParseDecision(payload.Decision)
	if !ok {
		http.Error(w, "decision must be APPROVED or REJECTED", http.StatusBadRequest)
		return
	}

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may decide join requests"))
		return
	}

	request, err := h.requestRepo.GetRequestByID(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	if request.PartyID != partyID {
		writeError(w, models.NewAppError(models.ErrNotFound, "join request %s not found", requestID))
		return
	}

	decided, err := h.requestRepo.Decide(r.Context(), requestID, decision)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.notifications.NotifyJoinRequestDecided(r.Context(), decided.UserID, party.ID, party.Name, decision); err != nil {
		h.logger.Warn().Err(err).Str("party_id", partyID).Msg("failed to publish decision notification")
	}

	writeJSON(w, http.StatusOK, decided)
}
