package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/potlucky/potluck-api/internal/models"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/rs/zerolog"
)

// Event is a notification intent before persistence: who to tell and what
// happened. RecipientID empty means a broadcast row.
type Event struct {
	RecipientID string
	Event       models.NotificationEvent
	Severity    models.NotificationSeverity
	Title       string
	Message     string
	Metadata    map[string]interface{}
}

type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyParticipantJoined(ctx context.Context, hostID, partyID, partyName, userName string) error
	NotifyParticipantLeft(ctx context.Context, hostID, partyID, partyName, userName string) error
	NotifyParticipantRemoved(ctx context.Context, userID, partyID, partyName string) error
	NotifyJoinRequestSubmitted(ctx context.Context, hostID, partyID, partyName, requesterName string) error
	NotifyJoinRequestDecided(ctx context.Context, requesterID, partyID, partyName string, status models.JoinRequestStatus) error
	NotifyInvitationRedeemed(ctx context.Context, hostID, partyID, partyName, userName string) error
	NotifyPartyReminder(ctx context.Context, userID, partyID, partyName, when string) error
	ListRecent(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) (models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	if evt.Event == "" {
		return models.Notification{}, fmt.Errorf("event type is required")
	}
	if evt.Severity == "" {
		evt.Severity = models.NotificationSeverityInfo
	}
	title := strings.TrimSpace(evt.Title)
	message := strings.TrimSpace(evt.Message)
	if title == "" {
		title = string(evt.Event)
	}
	params := repository.CreateNotificationParams{
		Event:    evt.Event,
		Severity: evt.Severity,
		Title:    title,
		Message:  message,
		Metadata: evt.Metadata,
	}
	if rid := strings.TrimSpace(evt.RecipientID); rid != "" {
		params.RecipientID = &rid
	}

	notif, err := s.repo.Create(ctx, params)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("failed to persist notification")
		return models.Notification{}, err
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), notif)
		}
	}
	return notif, nil
}

func (s *service) NotifyParticipantJoined(ctx context.Context, hostID, partyID, partyName, userName string) error {
	_, err := s.Publish(ctx, Event{
		RecipientID: hostID,
		Event:       models.NotificationEventParticipantJoined,
		Severity:    models.NotificationSeverityInfo,
		Title:       fmt.Sprintf("New participant: %s", partyName),
		Message:     fmt.Sprintf("%s joined %s.", userName, partyName),
		Metadata:    partyMetadata(partyID, partyName),
	})
	return err
}

func (s *service) NotifyParticipantLeft(ctx context.Context, hostID, partyID, partyName, userName string) error {
	_, err := s.Publish(ctx, Event{
		RecipientID: hostID,
		Event:       models.NotificationEventParticipantLeft,
		Severity:    models.NotificationSeverityInfo,
		Title:       fmt.Sprintf("Participant left: %s", partyName),
		Message:     fmt.Sprintf("%s left %s.", userName, partyName),
		Metadata:    partyMetadata(partyID, partyName),
	})
	return err
}

func (s *service) NotifyParticipantRemoved(ctx context.Context, userID, partyID, partyName string) error {
	_, err := s.Publish(ctx, Event{
		RecipientID: userID,
		Event:       models.NotificationEventParticipantRemoved,
		Severity:    models.NotificationSeverityWarning,
		Title:       fmt.Sprintf("Removed from %s", partyName),
		Message:     fmt.Sprintf("The host removed you from %s.", partyName),
		Metadata:    partyMetadata(partyID, partyName),
	})
	return err
}

func (s *service) NotifyJoinRequestSubmitted(ctx context.Context, hostID, partyID, partyName, requesterName string) error {
	_, err := s.Publish(ctx, Event{
		RecipientID: hostID,
		Event:       models.NotificationEventJoinRequestSubmitted,
		Severity:    models.NotificationSeverityInfo,
		Title:       fmt.Sprintf("Join request: %s", partyName),
		Message:     fmt.Sprintf("%s asked to join %s.", requesterName, partyName),
		Metadata:    partyMetadata(partyID, partyName),
	})
	return err
}

func (s *service) NotifyJoinRequestDecided(ctx context.Context, requesterID, partyID, partyName string, status models.JoinRequestStatus) error {
	message := fmt.Sprintf("Your request to join %s was rejected.", partyName)
	if status == models.JoinRequestApproved {
		message = fmt.Sprintf("Your request to join %s was approved. See you there!", partyName)
	}
	metadata := partyMetadata(partyID, partyName)
	metadata["status"] = string(status)
	_, err := s.Publish(ctx, Event{
		RecipientID: requesterID,
		Event:       models.NotificationEventJoinRequestDecided,
		Severity:    models.NotificationSeverityInfo,
		Title:       fmt.Sprintf("Request %s: %s", strings.ToLower(string(status)), partyName),
		Message:     message,
		Metadata:    metadata,
	})
	return err
}

func (s *service) NotifyInvitationRedeemed(ctx context.Context, hostID, partyID, partyName, userName string) error {
	_, err := s.Publish(ctx, Event{
		RecipientID: hostID,
		Event:       models.NotificationEventInvitationRedeemed,
		Severity:    models.NotificationSeverityInfo,
		Title:       fmt.Sprintf("Invitation redeemed: %s", partyName),
		Message:     fmt.Sprintf("%s joined %s using an invitation.", userName, partyName),
		Metadata:    partyMetadata(partyID, partyName),
	})
	return err
}

func (s *service) NotifyPartyReminder(ctx context.Context, userID, partyID, partyName, when string) error {
	_, err := s.Publish(ctx, Event{
		RecipientID: userID,
		Event:       models.NotificationEventPartyReminder,
		Severity:    models.NotificationSeverityInfo,
		Title:       fmt.Sprintf("Reminder: %s", partyName),
		Message:     fmt.Sprintf("%s starts %s. Check your pledged dishes!", partyName, when),
		Metadata:    partyMetadata(partyID, partyName),
	})
	return err
}

func (s *service) ListRecent(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, recipientID, limit)
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID string) (models.Notification, error) {
	return s.repo.MarkRead(ctx, recipientID, notificationID)
}

func partyMetadata(partyID, partyName string) map[string]interface{} {
	return map[string]interface{}{
		"party_id":   partyID,
		"party_name": partyName,
	}
}
