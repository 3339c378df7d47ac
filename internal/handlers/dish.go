package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/rs/zerolog"
)

type DishHandler struct {
	partyRepo       repository.PartyRepository
	participantRepo repository.ParticipantRepository
	dishRepo        repository.DishRepository
	logger          zerolog.Logger
}

func NewDishHandler(
	partyRepo repository.PartyRepository,
	participantRepo repository.ParticipantRepository,
	dishRepo repository.DishRepository,
	logger zerolog.Logger,
) *DishHandler {
	return &DishHandler{
		partyRepo:       partyRepo,
		participantRepo: participantRepo,
		dishRepo:        dishRepo,
		logger:          logger.With().Str("handler", "dish").Logger(),
	}
}

type createDishRequest struct {
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	AmountPerPerson float64 `json:"amount_per_person"`
}

// Create adds a dish to the party's menu. Host only.
func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	var req createDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" {
		http.Error(w, "name and unit are required", http.StatusBadRequest)
		return
	}
	if req.AmountPerPerson <= 0 {
		writeError(w, models.NewAppError(models.ErrInvalidAmount, "amount_per_person must be positive"))
		return
	}

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may manage dishes"))
		return
	}

	dish, err := h.dishRepo.CreateDish(r.Context(), models.PartyDish{
		PartyID:         partyID,
		Name:            req.Name,
		Unit:            req.Unit,
		AmountPerPerson: req.AmountPerPerson,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dish)
}

type dishView struct {
	models.PartyDish
	TotalNeeded float64 `json:"total_needed"`
	Remaining   float64 `json:"remaining"`
}

// List returns the party's dishes with the still-needed amount per dish.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	partyID := mux.Vars(r)["partyID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}

	_, perr := h.participantRepo.GetByPartyAndUser(r.Context(), partyID, userID)
	isParticipant := perr == nil

	access := models.ResolveAccess(party, userID, isParticipant)
	if !access.ViewDishes {
		writeError(w, models.NewAppError(models.ErrNotParticipant, "only participants may view the menu"))
		return
	}

	dishes, err := h.dishRepo.ListDishesByParty(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	headcount, err := h.participantRepo.TotalHeadcount(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]dishView, 0, len(dishes))
	for _, dish := range dishes {
		view := dishView{PartyDish: dish}
		if access.ViewAmounts {
			remaining, err := h.dishRepo.RemainingNeeded(r.Context(), dish.ID, "")
			if err != nil {
				writeError(w, err)
				return
			}
			view.TotalNeeded = dish.DisplayAmount(dish.AmountPerPerson * float64(headcount))
			view.Remaining = dish.DisplayAmount(remaining)
		} else {
			view.AmountPerPerson = 0
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

// Delete removes a dish and its pledged contributions. Host only.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	vars := mux.Vars(r)
	partyID := vars["partyID"]
	dishID := vars["dishID"]

	party, err := h.partyRepo.GetPartyByID(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !party.IsHost(userID) {
		writeError(w, models.NewAppError(models.ErrNotHost, "only the host may manage dishes"))
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

	if err := h.dishRepo.DeleteDish(r.Context(), dishID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
