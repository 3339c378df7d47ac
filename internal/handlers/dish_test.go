package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/rs/zerolog"
)

func newDishRouter(h *DishHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/parties/{partyID}/dishes", h.Create).Methods("POST")
	r.HandleFunc("/api/parties/{partyID}/dishes", h.List).Methods("GET")
	r.HandleFunc("/api/parties/{partyID}/dishes/{dishID}", h.Delete).Methods("DELETE")
	return r
}

func TestCreateDish(t *testing.T) {
	tt := []struct {
		name       string
		caller     string
		body       string
		wantStatus int
	}{
		{
			name:       "host creates dish",
			caller:     "host-1",
			body:       `{"name":"Brownies","unit":"pieces","amount_per_person":1.5}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "non-host is refused",
			caller:     "user-1",
			body:       `{"name":"Brownies","unit":"pieces","amount_per_person":1.5}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing name",
			caller:     "host-1",
			body:       `{"unit":"pieces","amount_per_person":1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-positive amount",
			caller:     "host-1",
			body:       `{"name":"Brownies","unit":"pieces","amount_per_person":0}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			h := NewDishHandler(newFakePartyRepo(publicParty(nil)), newFakeParticipantRepo(), newFakeDishRepo(), zerolog.Nop())

			rec := httptest.NewRecorder()
			newDishRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/dishes", tc.caller, tc.body))

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListDishes_RoundsForDisplay(t *testing.T) {
	// 3 seats at 1.5 pieces each is 4.5; a countable unit rounds up to 5.
	dishRepo := newFakeDishRepo(models.PartyDish{ID: "dish-1", PartyID: "party-1", Name: "Brownies", Unit: "pieces", AmountPerPerson: 1.5})
	dishRepo.remaining = 4.5
	participantRepo := newFakeParticipantRepo(
		models.Participant{ID: "participant-1", PartyID: "party-1", UserID: "host-1", NumGuests: 0},
		models.Participant{ID: "participant-2", PartyID: "party-1", UserID: "user-1", NumGuests: 1},
	)
	h := NewDishHandler(newFakePartyRepo(publicParty(nil)), participantRepo, dishRepo, zerolog.Nop())

	rec := httptest.NewRecorder()
	newDishRouter(h).ServeHTTP(rec, authedRequest("GET", "/api/parties/party-1/dishes", "user-1", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var views []struct {
		Name        string  `json:"name"`
		TotalNeeded float64 `json:"total_needed"`
		Remaining   float64 `json:"remaining"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("failed to decode dishes: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one dish, got %d", len(views))
	}
	if views[0].TotalNeeded != 5 {
		t.Errorf("expected total rounded up to 5, got %v", views[0].TotalNeeded)
	}
	if views[0].Remaining != 5 {
		t.Errorf("expected remaining rounded up to 5, got %v", views[0].Remaining)
	}
}

func TestListDishes_PrivatePartyNonParticipant(t *testing.T) {
	party := publicParty(nil)
	party.Privacy = models.PrivacyPrivate
	h := NewDishHandler(newFakePartyRepo(party), newFakeParticipantRepo(), newFakeDishRepo(saladDish()), zerolog.Nop())

	rec := httptest.NewRecorder()
	newDishRouter(h).ServeHTTP(rec, authedRequest("GET", "/api/parties/party-1/dishes", "user-1", ""))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestDeleteDish_HostOnly(t *testing.T) {
	dishRepo := newFakeDishRepo(saladDish())
	h := NewDishHandler(newFakePartyRepo(publicParty(nil)), newFakeParticipantRepo(), dishRepo, zerolog.Nop())

	rec := httptest.NewRecorder()
	newDishRouter(h).ServeHTTP(rec, authedRequest("DELETE", "/api/parties/party-1/dishes/dish-1", "user-1", ""))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-host, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newDishRouter(h).ServeHTTP(rec, authedRequest("DELETE", "/api/parties/party-1/dishes/dish-1", "host-1", ""))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for host, got %d", rec.Code)
	}
	if len(dishRepo.dishes) != 0 {
		t.Errorf("expected dish deleted, %d remain", len(dishRepo.dishes))
	}
}
