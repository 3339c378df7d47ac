package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/rs/zerolog"
)

func authedRequest(method, target, userID, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	return r.WithContext(authz.WithIdentity(r.Context(), userID, userID+"@example.com"))
}

func decodeErrorKind(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorKind {
	t.Helper()
	var resp struct {
		Kind models.ErrorKind `json:"kind"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Kind
}

func newJoinRouter(h *ParticipantHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/parties/{partyID}/participants", h.Join).Methods("POST")
	r.HandleFunc("/api/parties/{partyID}/participants/me", h.Leave).Methods("DELETE")
	r.HandleFunc("/api/parties/{partyID}/participants/{participantID}", h.Remove).Methods("DELETE")
	r.HandleFunc("/api/parties/{partyID}/participants/{participantID}", h.UpdateGuests).Methods("PUT")
	return r
}

func publicParty(max *int) models.Party {
	return models.Party{
		ID:              "party-1",
		Name:            "Garden Potluck",
		Date:            time.Now().Add(72 * time.Hour),
		MaxParticipants: max,
		Privacy:         models.PrivacyPublic,
		HostID:          "host-1",
	}
}

func TestJoin_PublicParty(t *testing.T) {
	partyRepo := newFakePartyRepo(publicParty(nil))
	participantRepo := newFakeParticipantRepo()
	notifications := &fakeNotificationService{}
	h := NewParticipantHandler(partyRepo, participantRepo, newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), notifications, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants", "user-1", `{"num_guests":2}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var participant models.Participant
	if err := json.NewDecoder(rec.Body).Decode(&participant); err != nil {
		t.Fatalf("failed to decode participant: %v", err)
	}
	if participant.NumGuests != 2 {
		t.Errorf("expected 2 guests, got %d", participant.NumGuests)
	}
	if len(notifications.events) != 1 || notifications.events[0].Event != models.NotificationEventParticipantJoined {
		t.Errorf("expected one participant_joined event, got %+v", notifications.events)
	}
}

func TestJoin_HostCannotJoinOwnParty(t *testing.T) {
	h := NewParticipantHandler(newFakePartyRepo(publicParty(nil)), newFakeParticipantRepo(), newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants", "host-1", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if kind := decodeErrorKind(t, rec); kind != models.ErrSelfJoin {
		t.Errorf("expected SELF_JOIN, got %s", kind)
	}
}

func TestJoin_CapacityExceeded(t *testing.T) {
	participantRepo := newFakeParticipantRepo()
	participantRepo.joinErr = models.NewAppError(models.ErrCapacityExceeded, "only 1 seat left")
	h := NewParticipantHandler(newFakePartyRepo(publicParty(nil)), participantRepo, newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants", "user-1", `{"num_guests":3}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if kind := decodeErrorKind(t, rec); kind != models.ErrCapacityExceeded {
		t.Errorf("expected CAPACITY_EXCEEDED, got %s", kind)
	}
}

func TestJoin_PrivatePartyWithoutToken(t *testing.T) {
	party := publicParty(nil)
	party.Privacy = models.PrivacyPrivate
	h := NewParticipantHandler(newFakePartyRepo(party), newFakeParticipantRepo(), newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants", "user-1", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestJoin_InvitationToken(t *testing.T) {
	party := publicParty(nil)
	party.Privacy = models.PrivacyPrivate
	token := "secret-token"
	invitationRepo := newFakeInvitationRepo(models.Invitation{
		ID:        "invitation-1",
		PartyID:   "party-1",
		TokenHash: HashInvitationToken(token),
		MaxUses:   2,
	})
	notifications := &fakeNotificationService{}
	h := NewParticipantHandler(newFakePartyRepo(party), newFakeParticipantRepo(), newFakeJoinRequestRepo(), invitationRepo, newFakeUserRepo(), notifications, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants?token="+token, "user-1", `{"num_guests":1}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := invitationRepo.invitations["invitation-1"].CurrentUses; got != 1 {
		t.Errorf("expected invitation use count 1, got %d", got)
	}
	if len(notifications.events) != 1 || notifications.events[0].Event != models.NotificationEventInvitationRedeemed {
		t.Errorf("expected one invitation_redeemed event, got %+v", notifications.events)
	}
}

func TestJoin_ExhaustedInvitation(t *testing.T) {
	party := publicParty(nil)
	party.Privacy = models.PrivacyPrivate
	token := "spent-token"
	invitationRepo := newFakeInvitationRepo(models.Invitation{
		ID:          "invitation-1",
		PartyID:     "party-1",
		TokenHash:   HashInvitationToken(token),
		MaxUses:     1,
		CurrentUses: 1,
	})
	h := NewParticipantHandler(newFakePartyRepo(party), newFakeParticipantRepo(), newFakeJoinRequestRepo(), invitationRepo, newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants?token="+token, "user-1", ""))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if kind := decodeErrorKind(t, rec); kind != models.ErrInvitationExhausted {
		t.Errorf("expected INVITATION_EXHAUSTED, got %s", kind)
	}
}

func TestJoin_InvitationForOtherParty(t *testing.T) {
	party := publicParty(nil)
	party.Privacy = models.PrivacyPrivate
	other := models.Party{ID: "party-2", Name: "Rooftop Brunch", HostID: "host-2", Privacy: models.PrivacyPrivate}
	token := "wrong-door"
	invitationRepo := newFakeInvitationRepo(models.Invitation{
		ID:        "invitation-1",
		PartyID:   "party-2",
		TokenHash: HashInvitationToken(token),
		MaxUses:   3,
	})
	participantRepo := newFakeParticipantRepo()
	notifications := &fakeNotificationService{}
	h := NewParticipantHandler(newFakePartyRepo(party, other), participantRepo, newFakeJoinRequestRepo(), invitationRepo, newFakeUserRepo(), notifications, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants?token="+token, "user-1", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if kind := decodeErrorKind(t, rec); kind != models.ErrInvitationNotFound {
		t.Errorf("expected INVITATION_NOT_FOUND, got %s", kind)
	}
	if got := invitationRepo.invitations["invitation-1"].CurrentUses; got != 0 {
		t.Errorf("expected invitation untouched, use count %d", got)
	}
	if len(participantRepo.participants) != 0 {
		t.Errorf("expected nobody admitted, got %+v", participantRepo.participants)
	}
	if len(notifications.events) != 0 {
		t.Errorf("expected no notifications, got %+v", notifications.events)
	}
}

func TestJoin_MalformedBody(t *testing.T) {
	h := NewParticipantHandler(newFakePartyRepo(publicParty(nil)), newFakeParticipantRepo(), newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("POST", "/api/parties/party-1/participants", "user-1", `{"num_guests":`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestLeave(t *testing.T) {
	participantRepo := newFakeParticipantRepo(models.Participant{ID: "participant-1", PartyID: "party-1", UserID: "user-1", NumGuests: 1})
	notifications := &fakeNotificationService{}
	h := NewParticipantHandler(newFakePartyRepo(publicParty(nil)), participantRepo, newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), notifications, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("DELETE", "/api/parties/party-1/participants/me", "user-1", ""))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(participantRepo.participants) != 0 {
		t.Errorf("expected participant removed, %d remain", len(participantRepo.participants))
	}
}

func TestLeave_NotAParticipant(t *testing.T) {
	h := NewParticipantHandler(newFakePartyRepo(publicParty(nil)), newFakeParticipantRepo(), newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	newJoinRouter(h).ServeHTTP(rec, authedRequest("DELETE", "/api/parties/party-1/participants/me", "user-1", ""))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestRemove_HostOnly(t *testing.T) {
	participantRepo := newFakeParticipantRepo(models.Participant{ID: "participant-1", PartyID: "party-1", UserID: "user-1"})
	h := NewParticipantHandler(newFakePartyRepo(publicParty(nil)), participantRepo, newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

	tt := []struct {
		name       string
		caller     string
		wantStatus int
	}{
		{name: "stranger is rejected", caller: "user-2", wantStatus: http.StatusForbidden},
		{name: "host removes participant", caller: "host-1", wantStatus: http.StatusNoContent},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newJoinRouter(h).ServeHTTP(rec, authedRequest("DELETE", "/api/parties/party-1/participants/participant-1", tc.caller, ""))
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestUpdateGuests_Authorization(t *testing.T) {
	tt := []struct {
		name       string
		caller     string
		wantStatus int
	}{
		{name: "owner edits own guests", caller: "user-1", wantStatus: http.StatusOK},
		{name: "host edits any guests", caller: "host-1", wantStatus: http.StatusOK},
		{name: "stranger is rejected", caller: "user-2", wantStatus: http.StatusForbidden},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			participantRepo := newFakeParticipantRepo(models.Participant{ID: "participant-1", PartyID: "party-1", UserID: "user-1", NumGuests: 1})
			h := NewParticipantHandler(newFakePartyRepo(publicParty(nil)), participantRepo, newFakeJoinRequestRepo(), newFakeInvitationRepo(), newFakeUserRepo(), &fakeNotificationService{}, zerolog.Nop())

			rec := httptest.NewRecorder()
			newJoinRouter(h).ServeHTTP(rec, authedRequest("PUT", "/api/parties/party-1/participants/participant-1", tc.caller, `{"num_guests":4}`))
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if tc.wantStatus == http.StatusOK {
				if got := participantRepo.participants["participant-1"].NumGuests; got != 4 {
					t.Errorf("expected 4 guests after update, got %d", got)
				}
			}
		})
	}
}
