// Package notify defines the notification collaborator boundary. Delivery
// (SMS, push) is an external system; the engine only hands events over and
// never waits on, or fails because of, delivery.
package notify

import (
	"context"

	"github.com/flatpool/flatpool/internal/logger"
)

// Event types emitted by the settlement engine.
const (
	EventObligationCreated   = "obligation.created"
	EventSharePaid           = "obligation.share_paid"
	EventSplitExpenseCreated = "split_expense.created"
	EventParticipantPaid     = "split_expense.participant_paid"
)

// Notifier delivers an event to a set of recipients. Implementations must be
// safe for concurrent use. Errors are logged by callers and never propagated.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]any, recipientIDs []string) error
}

// LogNotifier is the default Notifier; it records events in the application
// log instead of delivering them anywhere.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the event. It never fails. User-provided text in the payload
// is sanitized before it reaches the log.
func (n *LogNotifier) Notify(_ context.Context, event string, payload map[string]any, recipientIDs []string) error {
	hashed := make([]string, len(recipientIDs))
	for i, id := range recipientIDs {
		hashed[i] = logger.HashMemberID(id)
	}
	safe := make(map[string]any, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok && k == "title" {
			safe[k] = logger.SanitizeText(s)
			continue
		}
		safe[k] = v
	}
	logger.Log.Info().
		Str("event", event).
		Strs("recipient_hashes", hashed).
		Interface("payload", safe).
		Msg("Notification emitted")
	return nil
}
