package notification

import (
	"context"
	"fmt"

	"github.com/potlucky/potluck-api/internal/models"
	"github.com/rs/zerolog"
)

// Notifier delivers a persisted notification intent over one channel.
// Delivery failures never propagate to the operation that emitted the
// intent; the service logs and moves on.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

func logNotifyError(logger zerolog.Logger, err error, channel string, notif models.Notification) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("notification_id", notif.ID).
		Str("event_type", string(notif.EventType)).
		Str("channel", channel).
		Msg("failed to deliver notification")
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
