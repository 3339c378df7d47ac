package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/handlers"
)

// NewRouter wires up the full HTTP surface. Everything under /api except
// signup, login and invitation previews requires a valid bearer token.
func NewRouter(
	authHandler *handlers.AuthHandler,
	partyHandler *handlers.PartyHandler,
	participantHandler *handlers.ParticipantHandler,
	requestHandler *handlers.JoinRequestHandler,
	invitationHandler *handlers.InvitationHandler,
	dishHandler *handlers.DishHandler,
	contributionHandler *handlers.ContributionHandler,
	notificationHandler *handlers.NotificationHandler,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signup", authHandler.SignUp).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	// Token preview stays public so invitees can inspect before signing up.
	api.HandleFunc("/invitations/{token}", invitationHandler.Preview).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(authHandler.JWTMiddleware, authz.RequireUser)

	// Parties
	protected.HandleFunc("/parties", partyHandler.CreateParty).Methods("POST")
	protected.HandleFunc("/parties", partyHandler.ListParties).Methods("GET")
	protected.HandleFunc("/parties/{partyID}", partyHandler.GetParty).Methods("GET")
	protected.HandleFunc("/parties/{partyID}", partyHandler.UpdateParty).Methods("PUT")
	protected.HandleFunc("/parties/{partyID}", partyHandler.DeleteParty).Methods("DELETE")
	protected.HandleFunc("/parties/{partyID}/access", partyHandler.Access).Methods("GET")

	// Participants
	protected.HandleFunc("/parties/{partyID}/participants", participantHandler.Join).Methods("POST")
	protected.HandleFunc("/parties/{partyID}/participants/me", participantHandler.Leave).Methods("DELETE")
	protected.HandleFunc("/parties/{partyID}/participants/{participantID}", participantHandler.Remove).Methods("DELETE")
	protected.HandleFunc("/parties/{partyID}/participants/{participantID}", participantHandler.UpdateGuests).Methods("PUT")

	// Join requests
	protected.HandleFunc("/parties/{partyID}/requests", requestHandler.Submit).Methods("POST")
	protected.HandleFunc("/parties/{partyID}/requests", requestHandler.List).Methods("GET")
	protected.HandleFunc("/parties/{partyID}/requests/{requestID}", requestHandler.Decide).Methods("PUT")

	// Invitations
	protected.HandleFunc("/parties/{partyID}/invitations", invitationHandler.Create).Methods("POST")
	protected.HandleFunc("/parties/{partyID}/invitations", invitationHandler.List).Methods("GET")
	protected.HandleFunc("/parties/{partyID}/invitations/{invitationID}", invitationHandler.Revoke).Methods("DELETE")

	// Dishes and contributions
	protected.HandleFunc("/parties/{partyID}/dishes", dishHandler.Create).Methods("POST")
	protected.HandleFunc("/parties/{partyID}/dishes", dishHandler.List).Methods("GET")
	protected.HandleFunc("/parties/{partyID}/dishes/{dishID}", dishHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/parties/{partyID}/dishes/{dishID}/contributions", contributionHandler.Pledge).Methods("POST")
	protected.HandleFunc("/parties/{partyID}/dishes/{dishID}/contributions", contributionHandler.ListByDish).Methods("GET")
	protected.HandleFunc("/contributions/{contributionID}", contributionHandler.Withdraw).Methods("DELETE")

	// Notifications
	protected.HandleFunc("/notifications", notificationHandler.List).Methods("GET")
	protected.HandleFunc("/notifications/{notificationID}/read", notificationHandler.MarkRead).Methods("POST")

	return r
}
