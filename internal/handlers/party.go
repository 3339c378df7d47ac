package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/potlucky/potluck-api/internal/temporal"
	"github.com/rs/zerolog"
	tc "go.temporal.io/sdk/client"
)

type PartyHandler struct {
	partyRepo       repository.PartyRepository
	participantRepo repository.ParticipantRepository
	requestRepo     repository.JoinRequestRepository
	invitationRepo  repository.InvitationRepository
	dishRepo        repository.DishRepository
	temporalClient  tc.Client
	reminderLead    time.Duration
	logger          zerolog.Logger
}

func NewPartyHandler(
	partyRepo repository.PartyRepository,
	participantRepo repository.ParticipantRepository,
	requestRepo repository.JoinRequestRepository,
	invitationRepo repository.InvitationRepository,
	dishRepo repository.DishRepository,
	temporalClient tc.Client,
	reminderLead time.Duration,
	logger zerolog.Logger,
) *PartyHandler {
	return &PartyHandler{
		partyRepo:       partyRepo,
		participantRepo: participantRepo,
		requestRepo:     requestRepo,
		invitationRepo:  invitationRepo,
		dishRepo:        dishRepo,
		temporalClient:  temporalClient,
		reminderLead:    reminderLead,
		logger:          logger.With().Str("handler", "party").Logger(),
	}
}

type partyRequest struct {
	Name            string    `json:"name"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location"`
	MaxParticipants *int      `json:"max_participants"`
	Privacy         string    `json:"privacy"`
}

func (h *PartyHandler) CreateParty(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)

	var payload partyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		http.Error(w, "Party name is required", http.StatusBadRequest)
		return
	}
	if payload.Date.IsZero() {
		http.Error(w, "Party date is required", http.StatusBadRequest)
		return
	}
	if payload.MaxParticipants != nil && *payload.MaxParticipants <= 0 {
		http.Error(w, "max_participants must be positive", http.StatusBadRequest)
		return
	}

	privacy := models.PrivacyPublic
	if payload.Privacy != "" {
		parsed, ok := models.ParsePrivacyMode(payload.Privacy)
		if !ok {
			http.Error(w, "privacy must be PUBLIC, CLOSED or PRIVATE", http.StatusBadRequest)
			return
		}
		privacy = parsed
	}

	party, err := h.partyRepo.CreateParty(r.Context(), models.Party{
		Name:            payload.Name,
		Date:            payload.Date,
		Location:        strings.TrimSpace(payload.Location),
		MaxParticipants: payload.MaxParticipants,
		Privacy:         privacy,
		HostID:          userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.scheduleReminder(party)

	writeJSON(w, http.StatusCreated, party)
}

func (h *PartyHandler) scheduleReminder(party models.Party) {
	if h.temporalClient == nil {
		return
	}
	options := tc.StartWorkflowOptions{
		ID:        temporal.ReminderWorkflowIDPrefix + party.ID,
		TaskQueue: temporal.TaskQueueName,
	}
	params := temporal.ReminderParams{
		PartyID:   party.ID,
		PartyName: party.Name,
		PartyDate: party.Date,
		LeadTime:  h.reminderLead,
	}
	_, err := h.temporalClient.ExecuteWorkflow(context.Background(), options, temporal.ReminderWorkflowName, params)
	if err != nil {
		h.logger.Error().Err(err).Str("party_id", party.ID).Msg("failed to schedule reminder workflow")
	}
}

func (h *PartyHandler) ListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.partyRepo.ListParties(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"parties": parties})
}

// partyView is the privacy-filtered projection of a party for one caller.
type partyView struct {
	Party        models.Party         `json:"party"`
	Access       models.Access        `json:"access"`
	Participants []models.Participant `json:"participants,omitempty"`
	Dishes       []models.PartyDish   `json:"dishes,omitempty"`
	Headcount    *int                 `json:"headcount,omitempty"`
}

func (h *PartyHandler) GetParty(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}

	isParticipant, err := h.isParticipant(r, partyID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	access := models.ResolveAccess(party, userID, isParticipant)
	view := partyView{Party: party, Access: access}

	if access.ViewParticipants {
		participants, err := h.participantRepo.ListByParty(r.Context(), partyID)
		if err != nil {
			writeError(w, err)
			return
		}
		view.Participants = participants
		total := models.TotalHeadcount(participants)
		view.Headcount = &total
	}
	if access.ViewDishes {
		dishes, err := h.dishRepo.ListDishesByParty(r.Context(), partyID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !access.ViewAmounts {
			for i := range dishes {
				dishes[i].AmountPerPerson = 0
			}
		}
		view.Dishes = dishes
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *PartyHandler) UpdateParty(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may edit the party"))
		return
	}

	var payload partyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if name := strings.TrimSpace(payload.Name); name != "" {
		party.Name = name
	}
	if !payload.Date.IsZero() {
		party.Date = payload.Date
	}
	if payload.Location != "" {
		party.Location = strings.TrimSpace(payload.Location)
	}
	if payload.MaxParticipants != nil {
		if *payload.MaxParticipants <= 0 {
			http.Error(w, "max_participants must be positive", http.StatusBadRequest)
			return
		}
		party.MaxParticipants = payload.MaxParticipants
	}
	if payload.Privacy != "" {
		privacy, ok := models.ParsePrivacyMode(payload.Privacy)
		if !ok {
			http.Error(w, "privacy must be PUBLIC, CLOSED or PRIVATE", http.StatusBadRequest)
			return
		}
		party.Privacy = privacy
	}

	updated, err := h.partyRepo.UpdateParty(r.Context(), party)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PartyHandler) DeleteParty(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may delete the party"))
		return
	}

	if err := h.partyRepo.DeleteParty(r.Context(), partyID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Access resolves the caller's capability set plus direct-join
// eligibility, optionally with a presented invitation token.
func (h *PartyHandler) Access(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}

	isParticipant, err := h.isParticipant(r, partyID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	hasApproved, err := h.requestRepo.HasApprovedRequest(r.Context(), partyID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	var presented *models.Invitation
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		invitation, err := h.invitationRepo.GetInvitationByTokenHash(r.Context(), HashInvitationToken(token))
		if err == nil {
			presented = &invitation
		} else if !models.IsKind(err, models.ErrInvitationNotFound) {
			writeError(w, err)
			return
		}
	}

	decision := models.CanJoin(party, userID, isParticipant, hasApproved, presented, time.Now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access": models.ResolveAccess(party, userID, isParticipant),
		"join":   decision,
	})
}

func (h *PartyHandler) isParticipant(r *http.Request, partyID, userID string) (bool, error) {
	_, err := h.participantRepo.GetByPartyAndUser(r.Context(), partyID, userID)
	if err == nil {
		return true, nil
	}
	if models.IsKind(err, models.ErrNotParticipant) {
		return false, nil
	}
	return false, err
}
