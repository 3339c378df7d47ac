package workflows

import (
	"github.com/potlucky/potluck-api/internal/temporal"
	"github.com/potlucky/potluck-api/internal/temporal/activities"
	"go.temporal.io/sdk/workflow"
)

// PartyReminderWorkflow sleeps until the configured lead time before the
// party date, then fans a reminder out to everyone still enrolled. The
// participant list is resolved at send time, not at scheduling time, so
// joins and leaves between scheduling and firing are reflected.
func PartyReminderWorkflow(ctx workflow.Context, params temporal.ReminderParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: temporal.DefaultActivityTimeout,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("Starting party reminder workflow", "PartyID", params.PartyID, "PartyDate", params.PartyDate)

	fireAt := params.PartyDate.Add(-params.LeadTime)
	if delay := fireAt.Sub(workflow.Now(ctx)); delay > 0 {
		if err := workflow.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	var a *activities.Activities

	var result temporal.ReminderResult
	err := workflow.ExecuteActivity(ctx, a.SendRemindersActivity, params).Get(ctx, &result)
	if err != nil {
		logger.Error("Failed to send party reminders.", "PartyID", params.PartyID, "error", err)
		return err
	}

	if result.Skipped {
		logger.Info("Reminder skipped, party no longer exists.", "PartyID", params.PartyID)
		return nil
	}

	logger.Info("Party reminder workflow completed.", "PartyID", params.PartyID, "Recipients", result.Recipients)
	return nil
}
