package handlers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/notification"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/rs/zerolog"
)

// GenerateInvitationToken returns a random URL-safe invite token. Only its
// hash is persisted, so the plaintext is shown exactly once at creation.
func GenerateInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate invitation token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func HashInvitationToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type InvitationHandler struct {
	partyRepo      repository.PartyRepository
	invitationRepo repository.InvitationRepository
	userRepo       repository.UserRepository
	notifications  notification.Service
	mailer         notification.InviteMailer
	inviteURL      string
	logger         zerolog.Logger
}

func NewInvitationHandler(
	partyRepo repository.PartyRepository,
	invitationRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	notifications notification.Service,
	mailer notification.InviteMailer,
	inviteURL string,
	logger zerolog.Logger,
) *InvitationHandler {
	return &InvitationHandler{
		partyRepo:      partyRepo,
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		notifications:  notifications,
		mailer:         mailer,
		inviteURL:      inviteURL,
		logger:         logger.With().Str("handler", "invitation").Logger(),
	}
}

type createInvitationRequest struct {
	Name      string     `json:"name"`
	MaxUses   int        `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	SendTo    string     `json:"send_to,omitempty"`
}

type invitationResponse struct {
	models.Invitation
	Token string `json:"token,omitempty"`
}

// Create mints an invitation for a party. Host only. The response carries
// the plaintext token; subsequent reads only expose usage metadata.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.MaxUses <= 0 {
		req.MaxUses = 1
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		http.Error(w, "expires_at must be in the future", http.StatusBadRequest)
		return
	}

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may create invitations"))
		return
	}

	token, err := GenerateInvitationToken()
	if err != nil {
		writeError(w, err)
		return
	}

	invitation, err := h.invitationRepo.CreateInvitation(r.Context(), models.Invitation{
		PartyID:   partyID,
		Name:      strings.TrimSpace(req.Name),
		TokenHash: HashInvitationToken(token),
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
		CreatedBy: userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if sendTo := strings.TrimSpace(req.SendTo); sendTo != "" && h.mailer != nil {
		url := fmt.Sprintf(h.inviteURL, token)
		if err := h.mailer.SendInvite(sendTo, party.Name, url); err != nil {
			h.logger.Warn().Err(err).Str("party_id", partyID).Msg("failed to send invitation email")
		}
	}

	writeJSON(w, http.StatusCreated, invitationResponse{Invitation: invitation, Token: token})
}

// Preview resolves an invitation token to the party it opens, without
// consuming a use. Unauthenticated so recipients can inspect before signup.
func (h *InvitationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	invitation, err := h.invitationRepo.GetInvitationByTokenHash(r.Context(), HashInvitationToken(token))
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	if invitation.IsExpired(now) {
		writeError(w, models.NewAppError(models.ErrInvitationExpired, "invitation has expired"))
		return
	}
	if invitation.IsExhausted() {
		writeError(w, models.NewAppError(models.ErrInvitationExhausted, "invitation has no uses left"))
		return
	}

	party, err := h.partyRepo.GetPartyByID(r.Context(), invitation.PartyID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invitation": invitation,
		"party": map[string]interface{}{
			"id":       party.ID,
			"name":     party.Name,
			"date":     party.Date,
			"location": party.Location,
		},
	})
}

// List returns a party's invitations. Host only, since usage counters and
// expiry dates are invite-management data.
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may list invitations"))
		return
	}

	invitations, err := h.invitationRepo.ListInvitationsByParty(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}

// Revoke deletes an invitation so its token can no longer be redeemed.
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	vars := mux.Vars(r)
	partyID := vars["partyID"]
	invitationID := vars["invitationID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may revoke invitations"))
		return
	}

	invitation, err := h.invitationRepo.GetInvitationByID(r.Context(), invitationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if invitation.PartyID != partyID {
		writeError(w, models.NewAppError(models.ErrInvitationNotFound, "invitation %s not found", invitationID))
		return
	}

	if err := h.invitationRepo.DeleteInvitation(r.Context(), invitationID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
