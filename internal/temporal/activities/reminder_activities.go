package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/pkg/errors"
	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/notification"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/potlucky/potluck-api/internal/temporal"
)

type Activities struct {
	PartyRepo       repository.PartyRepository
	ParticipantRepo repository.ParticipantRepository
	Notifications   notification.Service
}

// SendRemindersActivity delivers a reminder notification to every current
// participant of the party, including the host. A party deleted after
// scheduling is not an error; the reminder is simply skipped.
func (a *Activities) SendRemindersActivity(ctx context.Context, params temporal.ReminderParams) (*temporal.ReminderResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Sending party reminders", "PartyID", params.PartyID)

	party, err := a.PartyRepo.GetPartyByID(ctx, params.PartyID)
	if err != nil {
		if models.IsKind(err, models.ErrNotFound) {
			return &temporal.ReminderResult{PartyID: params.PartyID, Skipped: true}, nil
		}
		return nil, errors.Wrap(err, "failed to fetch party for reminder")
	}

	participants, err := a.ParticipantRepo.ListByParty(ctx, params.PartyID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list participants for reminder")
	}

	when := party.Date.Format("Monday, Jan 2 at 15:04")
	sent := 0
	for _, p := range participants {
		if err := a.Notifications.NotifyPartyReminder(ctx, p.UserID, party.ID, party.Name, when); err != nil {
			logger.Error("Failed to notify participant", "PartyID", party.ID, "UserID", p.UserID, "error", err)
			continue
		}
		sent++
	}

	return &temporal.ReminderResult{PartyID: params.PartyID, Recipients: sent}, nil
}
