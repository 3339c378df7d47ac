package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/rs/zerolog"
)

type ContributionHandler struct {
	partyRepo        repository.PartyRepository
	participantRepo  repository.ParticipantRepository
	dishRepo         repository.DishRepository
	contributionRepo repository.ContributionRepository
	logger           zerolog.Logger
}

func NewContributionHandler(
	partyRepo repository.PartyRepository,
	participantRepo repository.ParticipantRepository,
	dishRepo repository.DishRepository,
	contributionRepo repository.ContributionRepository,
	logger zerolog.Logger,
) *ContributionHandler {
	return &ContributionHandler{
		partyRepo:        partyRepo,
		participantRepo:  participantRepo,
		dishRepo:         dishRepo,
		contributionRepo: contributionRepo,
		logger:           logger.With().Str("handler", "contribution").Logger(),
	}
}

// Pledge records or replaces the caller's contribution to a dish. The
// amount is validated against what the dish still needs.
func (h *ContributionHandler) Pledge(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	vars := mux.Vars(r)
	partyID := vars["partyID"]
	dishID := vars["dishID"]

	var payload struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	dish, err := h.dishRepo.GetDishByID(r.Context(), dishID)
	if err != nil {
		writeError(w, err)
		return
	}
	if dish.PartyID != partyID {
		writeError(w, models.NewAppError(models.ErrNotFound, "dish %s not found", dishID))
		return
	}

	contribution, err := h.contributionRepo.Pledge(r.Context(), dishID, userID, payload.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contribution)
}

// Withdraw removes the caller's own contribution.
func (h *ContributionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	contributionID := mux.Vars(r)["contributionID"]

	if _, err := h.contributionRepo.Withdraw(r.Context(), contributionID, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListByDish returns the contributions pledged against one dish, with
// amounts visible only to callers who may see planning figures.
func (h *ContributionHandler) ListByDish(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	vars := mux.Vars(r)
	partyID := vars["partyID"]
	dishID := vars["dishID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}

	_, perr := h.participantRepo.GetByPartyAndUser(r.Context(), partyID, userID)
	access := models.ResolveAccess(party, userID, perr == nil)
	if !access.ViewAmounts {
		writeError(w, models.NewAppError(models.ErrNotParticipant, "only participants may view contributions"))
		return
	}

	dish, err := h.dishRepo.GetDishByID(r.Context(), dishID)
	if err != nil {
		writeError(w, err)
		return
	}
	if dish.PartyID != partyID {
		writeError(w, models.NewAppError(models.ErrNotFound, "dish %s not found", dishID))
		return
	}

	contributions, err := h.contributionRepo.ListContributionsByDish(r.Context(), dishID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}
