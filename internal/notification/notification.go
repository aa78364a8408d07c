package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-approval/internal/core/events"
)

// Message is one notification addressed to a user.
type Message struct {
	RecipientID int64
	Subject     string
	Body        string
}

// Sender delivers notifications. The default implementation just logs;
// mail or chat delivery plugs in behind the same interface.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes notifications to the structured log.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("notification sent",
		"recipient_id", msg.RecipientID,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}

// Notifier subscribes to expense events and notifies the requestor.
type Notifier struct {
	sender Sender
	logger *slog.Logger
}

func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		logger: logger,
	}
}

// Register wires the notifier onto the event bus.
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(events.ExpenseStatusChangedEvent, n.handleStatusChanged)
	bus.Subscribe(events.ExpenseCommentedEvent, n.handleCommented)
}

func (n *Notifier) handleStatusChanged(ctx context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for event %s", event.EventID())
	}

	requestorID, ok := data["requestor_id"].(int64)
	if !ok {
		return fmt.Errorf("event %s has no requestor_id", event.EventID())
	}
	ref, _ := data["reference_number"].(string)
	toStatus, _ := data["to_status"].(string)
	comment, _ := data["comment"].(string)

	body := fmt.Sprintf("Your expense %s is now %s.", ref, toStatus)
	if comment != "" {
		body = fmt.Sprintf("%s Note: %s", body, comment)
	}

	return n.sender.Send(ctx, Message{
		RecipientID: requestorID,
		Subject:     fmt.Sprintf("Expense %s %s", ref, toStatus),
		Body:        body,
	})
}

func (n *Notifier) handleCommented(ctx context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for event %s", event.EventID())
	}

	requestorID, ok := data["requestor_id"].(int64)
	if !ok {
		return fmt.Errorf("event %s has no requestor_id", event.EventID())
	}
	ref, _ := data["reference_number"].(string)
	actorName, _ := data["actor_name"].(string)
	comment, _ := data["comment"].(string)

	return n.sender.Send(ctx, Message{
		RecipientID: requestorID,
		Subject:     fmt.Sprintf("New comment on expense %s", ref),
		Body:        fmt.Sprintf("%s commented: %s", actorName, comment),
	})
}
