package handlers

import (
	"context"
	"time"

	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/notification"
)

// In-memory repository fakes. Only the methods a test exercises need
// behavior; the rest return NOT_FOUND.

type fakePartyRepo struct {
	parties map[string]models.Party
	// enrolls the host on CreateParty, mirroring the repository's
	// single-transaction behavior, when a participant store is attached.
	participants *fakeParticipantRepo
}

func newFakePartyRepo(parties ...models.Party) *fakePartyRepo {
	m := make(map[string]models.Party, len(parties))
	for _, p := range parties {
		m[p.ID] = p
	}
	return &fakePartyRepo{parties: m}
}

func (f *fakePartyRepo) CreateParty(_ context.Context, party models.Party) (models.Party, error) {
	if party.ID == "" {
		party.ID = "party-new"
	}
	f.parties[party.ID] = party
	if f.participants != nil {
		seat := models.Participant{ID: "participant-" + party.HostID, PartyID: party.ID, UserID: party.HostID}
		f.participants.participants[seat.ID] = seat
	}
	return party, nil
}

func (f *fakePartyRepo) GetPartyByID(_ context.Context, id string) (models.Party, error) {
	party, ok := f.parties[id]
	if !ok {
		return models.Party{}, models.NewAppError(models.ErrNotFound, "party %s not found", id)
	}
	return party, nil
}

func (f *fakePartyRepo) ListParties(_ context.Context) ([]models.Party, error) {
	out := make([]models.Party, 0, len(f.parties))
	for _, p := range f.parties {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePartyRepo) ListPartiesByHost(_ context.Context, hostID string) ([]models.Party, error) {
	var out []models.Party
	for _, p := range f.parties {
		if p.HostID == hostID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePartyRepo) UpdateParty(_ context.Context, party models.Party) (models.Party, error) {
	f.parties[party.ID] = party
	return party, nil
}

func (f *fakePartyRepo) DeleteParty(_ context.Context, id string) error {
	delete(f.parties, id)
	return nil
}

type fakeParticipantRepo struct {
	participants map[string]models.Participant
	joinErr      error
}

func newFakeParticipantRepo(participants ...models.Participant) *fakeParticipantRepo {
	m := make(map[string]models.Participant, len(participants))
	for _, p := range participants {
		m[p.ID] = p
	}
	return &fakeParticipantRepo{participants: m}
}

func (f *fakeParticipantRepo) Join(_ context.Context, partyID, userID string, numGuests int) (models.Participant, error) {
	if f.joinErr != nil {
		return models.Participant{}, f.joinErr
	}
	for _, p := range f.participants {
		if p.PartyID == partyID && p.UserID == userID {
			return models.Participant{}, models.NewAppError(models.ErrAlreadyParticipant, "user already takes part in party %s", partyID)
		}
	}
	participant := models.Participant{ID: "participant-" + userID, PartyID: partyID, UserID: userID, NumGuests: numGuests}
	f.participants[participant.ID] = participant
	return participant, nil
}

func (f *fakeParticipantRepo) Leave(_ context.Context, partyID, userID string) (models.Participant, error) {
	for id, p := range f.participants {
		if p.PartyID == partyID && p.UserID == userID {
			delete(f.participants, id)
			return p, nil
		}
	}
	return models.Participant{}, models.NewAppError(models.ErrNotParticipant, "user does not take part in party %s", partyID)
}

func (f *fakeParticipantRepo) Remove(_ context.Context, participantID string) (models.Participant, error) {
	p, ok := f.participants[participantID]
	if !ok {
		return models.Participant{}, models.NewAppError(models.ErrNotFound, "participant %s not found", participantID)
	}
	delete(f.participants, participantID)
	return p, nil
}

func (f *fakeParticipantRepo) UpdateGuestCount(_ context.Context, participantID string, newGuests int) (models.Participant, error) {
	p, ok := f.participants[participantID]
	if !ok {
		return models.Participant{}, models.NewAppError(models.ErrNotFound, "participant %s not found", participantID)
	}
	p.NumGuests = newGuests
	f.participants[participantID] = p
	return p, nil
}

func (f *fakeParticipantRepo) GetByID(_ context.Context, participantID string) (models.Participant, error) {
	p, ok := f.participants[participantID]
	if !ok {
		return models.Participant{}, models.NewAppError(models.ErrNotFound, "participant %s not found", participantID)
	}
	return p, nil
}

func (f *fakeParticipantRepo) GetByPartyAndUser(_ context.Context, partyID, userID string) (models.Participant, error) {
	for _, p := range f.participants {
		if p.PartyID == partyID && p.UserID == userID {
			return p, nil
		}
	}
	return models.Participant{}, models.NewAppError(models.ErrNotParticipant, "user does not take part in party %s", partyID)
}

func (f *fakeParticipantRepo) ListByParty(_ context.Context, partyID string) ([]models.Participant, error) {
	var out []models.Participant
	for _, p := range f.participants {
		if p.PartyID == partyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) TotalHeadcount(_ context.Context, partyID string) (int, error) {
	total := 0
	for _, p := range f.participants {
		if p.PartyID == partyID {
			total += p.Headcount()
		}
	}
	return total, nil
}

type fakeJoinRequestRepo struct {
	requests    map[string]models.JoinRequest
	hasApproved bool
	submitErr   error
	decideErr   error
}

func newFakeJoinRequestRepo(requests ...models.JoinRequest) *fakeJoinRequestRepo {
	m := make(map[string]models.JoinRequest, len(requests))
	for _, r := range requests {
		m[r.ID] = r
	}
	return &fakeJoinRequestRepo{requests: m}
}

func (f *fakeJoinRequestRepo) Submit(_ context.Context, partyID, userID string, numGuests int, message string) (models.JoinRequest, error) {
	if f.submitErr != nil {
		return models.JoinRequest{}, f.submitErr
	}
	request := models.JoinRequest{
		ID:        "request-" + userID,
		PartyID:   partyID,
		UserID:    userID,
		NumGuests: numGuests,
		Message:   message,
		Status:    models.JoinRequestPending,
	}
	f.requests[request.ID] = request
	return request, nil
}

func (f *fakeJoinRequestRepo) GetRequestByID(_ context.Context, id string) (models.JoinRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return models.JoinRequest{}, models.NewAppError(models.ErrNotFound, "join request %s not found", id)
	}
	return request, nil
}

func (f *fakeJoinRequestRepo) ListRequestsByParty(_ context.Context, partyID string) ([]models.JoinRequest, error) {
	var out []models.JoinRequest
	for _, r := range f.requests {
		if r.PartyID == partyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeJoinRequestRepo) HasApprovedRequest(_ context.Context, partyID, userID string) (bool, error) {
	return f.hasApproved, nil
}

func (f *fakeJoinRequestRepo) Decide(_ context.Context, requestID string, decision models.JoinRequestStatus) (models.JoinRequest, error) {
	if f.decideErr != nil {
		return models.JoinRequest{}, f.decideErr
	}
	request, ok := f.requests[requestID]
	if !ok {
		return models.JoinRequest{}, models.NewAppError(models.ErrNotFound, "join request %s not found", requestID)
	}
	if request.IsDecided() {
		return models.JoinRequest{}, models.NewAppError(models.ErrAlreadyDecided, "join request %s already decided", requestID)
	}
	now := time.Now()
	request.Status = decision
	request.DecidedAt = &now
	f.requests[requestID] = request
	return request, nil
}

type fakeInvitationRepo struct {
	invitations map[string]models.Invitation
	redeemErr   error
}

func newFakeInvitationRepo(invitations ...models.Invitation) *fakeInvitationRepo {
	m := make(map[string]models.Invitation, len(invitations))
	for _, inv := range invitations {
		m[inv.ID] = inv
	}
	return &fakeInvitationRepo{invitations: m}
}

func (f *fakeInvitationRepo) CreateInvitation(_ context.Context, invitation models.Invitation) (models.Invitation, error) {
	if invitation.ID == "" {
		invitation.ID = "invitation-new"
	}
	f.invitations[invitation.ID] = invitation
	return invitation, nil
}

func (f *fakeInvitationRepo) GetInvitationByID(_ context.Context, id string) (models.Invitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return models.Invitation{}, models.NewAppError(models.ErrInvitationNotFound, "invitation %s not found", id)
	}
	return inv, nil
}

func (f *fakeInvitationRepo) GetInvitationByTokenHash(_ context.Context, tokenHash string) (models.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.TokenHash == tokenHash {
			return inv, nil
		}
	}
	return models.Invitation{}, models.NewAppError(models.ErrInvitationNotFound, "invitation not found")
}

func (f *fakeInvitationRepo) ListInvitationsByParty(_ context.Context, partyID string) ([]models.Invitation, error) {
	var out []models.Invitation
	for _, inv := range f.invitations {
		if inv.PartyID == partyID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) DeleteInvitation(_ context.Context, id string) error {
	delete(f.invitations, id)
	return nil
}

func (f *fakeInvitationRepo) Redeem(_ context.Context, partyID, tokenHash, userID string, numGuests int, now time.Time) (models.Participant, models.Invitation, error) {
	if f.redeemErr != nil {
		return models.Participant{}, models.Invitation{}, f.redeemErr
	}
	for _, inv := range f.invitations {
		if inv.TokenHash != tokenHash || inv.PartyID != partyID {
			continue
		}
		if inv.IsExpired(now) {
			return models.Participant{}, models.Invitation{}, models.NewAppError(models.ErrInvitationExpired, "invitation has expired")
		}
		if inv.IsExhausted() {
			return models.Participant{}, models.Invitation{}, models.NewAppError(models.ErrInvitationExhausted, "invitation has no uses left")
		}
		inv.CurrentUses++
		f.invitations[inv.ID] = inv
		return models.Participant{ID: "participant-" + userID, PartyID: inv.PartyID, UserID: userID, NumGuests: numGuests}, inv, nil
	}
	return models.Participant{}, models.Invitation{}, models.NewAppError(models.ErrInvitationNotFound, "invitation not found")
}

type fakeUserRepo struct {
	users map[string]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	m := make(map[string]models.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, email, password, name string) (models.User, error) {
	user := models.User{ID: "user-" + email, Email: email, Name: name}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) AuthenticateUser(_ context.Context, email, password string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.NewAppError(models.ErrNotFound, "unknown credentials")
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, userID string) (models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return models.User{}, models.NewAppError(models.ErrNotFound, "user %s not found", userID)
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.NewAppError(models.ErrNotFound, "user %s not found", email)
}

func (f *fakeUserRepo) ListUsersByParty(_ context.Context, partyID string) ([]models.User, error) {
	return nil, nil
}

type fakeDishRepo struct {
	dishes    map[string]models.PartyDish
	remaining float64
}

func newFakeDishRepo(dishes ...models.PartyDish) *fakeDishRepo {
	m := make(map[string]models.PartyDish, len(dishes))
	for _, d := range dishes {
		m[d.ID] = d
	}
	return &fakeDishRepo{dishes: m}
}

func (f *fakeDishRepo) CreateDish(_ context.Context, dish models.PartyDish) (models.PartyDish, error) {
	if dish.ID == "" {
		dish.ID = "dish-new"
	}
	f.dishes[dish.ID] = dish
	return dish, nil
}

func (f *fakeDishRepo) GetDishByID(_ context.Context, id string) (models.PartyDish, error) {
	dish, ok := f.dishes[id]
	if !ok {
		return models.PartyDish{}, models.NewAppError(models.ErrNotFound, "dish %s not found", id)
	}
	return dish, nil
}

func (f *fakeDishRepo) ListDishesByParty(_ context.Context, partyID string) ([]models.PartyDish, error) {
	var out []models.PartyDish
	for _, d := range f.dishes {
		if d.PartyID == partyID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDishRepo) DeleteDish(_ context.Context, id string) error {
	delete(f.dishes, id)
	return nil
}

func (f *fakeDishRepo) RemainingNeeded(_ context.Context, dishID, excludeParticipantID string) (float64, error) {
	return f.remaining, nil
}

type fakeContributionRepo struct {
	contributions map[string]models.Contribution
	pledgeErr     error
	withdrawErr   error
}

func newFakeContributionRepo(contributions ...models.Contribution) *fakeContributionRepo {
	m := make(map[string]models.Contribution, len(contributions))
	for _, c := range contributions {
		m[c.ID] = c
	}
	return &fakeContributionRepo{contributions: m}
}

func (f *fakeContributionRepo) Pledge(_ context.Context, dishID, userID string, amount float64) (models.Contribution, error) {
	if f.pledgeErr != nil {
		return models.Contribution{}, f.pledgeErr
	}
	contribution := models.Contribution{ID: "contribution-" + userID, PartyDishID: dishID, ParticipantID: "participant-" + userID, Amount: amount}
	f.contributions[contribution.ID] = contribution
	return contribution, nil
}

func (f *fakeContributionRepo) Withdraw(_ context.Context, contributionID, userID string) (models.Contribution, error) {
	if f.withdrawErr != nil {
		return models.Contribution{}, f.withdrawErr
	}
	c, ok := f.contributions[contributionID]
	if !ok {
		return models.Contribution{}, models.NewAppError(models.ErrNotFound, "contribution %s not found", contributionID)
	}
	delete(f.contributions, contributionID)
	return c, nil
}

func (f *fakeContributionRepo) GetContributionByID(_ context.Context, id string) (models.Contribution, error) {
	c, ok := f.contributions[id]
	if !ok {
		return models.Contribution{}, models.NewAppError(models.ErrNotFound, "contribution %s not found", id)
	}
	return c, nil
}

func (f *fakeContributionRepo) ListContributionsByDish(_ context.Context, dishID string) ([]models.Contribution, error) {
	var out []models.Contribution
	for _, c := range f.contributions {
		if c.PartyDishID == dishID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeNotificationService records published events instead of persisting.
type fakeNotificationService struct {
	events []notification.Event
}

func (f *fakeNotificationService) Publish(_ context.Context, evt notification.Event) (models.Notification, error) {
	f.events = append(f.events, evt)
	return models.Notification{}, nil
}

func (f *fakeNotificationService) notify(ctx context.Context, recipientID string, event models.NotificationEvent, partyID string) error {
	_, err := f.Publish(ctx, notification.Event{
		RecipientID: recipientID,
		Event:       event,
		Metadata:    map[string]interface{}{"party_id": partyID},
	})
	return err
}

func (f *fakeNotificationService) NotifyParticipantJoined(ctx context.Context, hostID, partyID, partyName, userName string) error {
	return f.notify(ctx, hostID, models.NotificationEventParticipantJoined, partyID)
}

func (f *fakeNotificationService) NotifyParticipantLeft(ctx context.Context, hostID, partyID, partyName, userName string) error {
	return f.notify(ctx, hostID, models.NotificationEventParticipantLeft, partyID)
}

func (f *fakeNotificationService) NotifyParticipantRemoved(ctx context.Context, userID, partyID, partyName string) error {
	return f.notify(ctx, userID, models.NotificationEventParticipantRemoved, partyID)
}

func (f *fakeNotificationService) NotifyJoinRequestSubmitted(ctx context.Context, hostID, partyID, partyName, requesterName string) error {
	return f.notify(ctx, hostID, models.NotificationEventJoinRequestSubmitted, partyID)
}

func (f *fakeNotificationService) NotifyJoinRequestDecided(ctx context.Context, requesterID, partyID, partyName string, status models.JoinRequestStatus) error {
	return f.notify(ctx, requesterID, models.NotificationEventJoinRequestDecided, partyID)
}

func (f *fakeNotificationService) NotifyInvitationRedeemed(ctx context.Context, hostID, partyID, partyName, userName string) error {
	return f.notify(ctx, hostID, models.NotificationEventInvitationRedeemed, partyID)
}

func (f *fakeNotificationService) NotifyPartyReminder(ctx context.Context, userID, partyID, partyName, when string) error {
	return f.notify(ctx, userID, models.NotificationEventPartyReminder, partyID)
}

func (f *fakeNotificationService) ListRecent(_ context.Context, recipientID string, limit int) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) MarkRead(_ context.Context, recipientID, notificationID string) (models.Notification, error) {
	return models.Notification{}, nil
}
