package temporal

import "time"

// TaskQueueName is the name of the Temporal task queue used for party reminder workflows.
const TaskQueueName = "POTLUCK_REMINDERS"

// ReminderWorkflowIDPrefix is the prefix used for party reminder workflow IDs.
const ReminderWorkflowIDPrefix = "party-reminder-"

// ReminderWorkflowName is the registered name of the reminder workflow,
// referenced by handlers that start it without importing the workflows package.
const ReminderWorkflowName = "PartyReminderWorkflow"

// DefaultActivityTimeout is the default timeout duration for Temporal activities in reminder workflows.
const DefaultActivityTimeout = 2 * time.Minute

// ReminderParams defines the input for party reminder workflows.
type ReminderParams struct {
	PartyID   string
	PartyName string
	PartyDate time.Time
	LeadTime  time.Duration
}

// ReminderResult holds the outcome of the send activity, recorded in the
// workflow history for inspection.
type ReminderResult struct {
	PartyID    string
	Recipients int
	Skipped    bool
}
