package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-telegram/bot"

	"github.com/flatpool/flatpool/internal/logger"
)

// TelegramNotifier posts settlement events to a household operations chat.
// Recipients are not addressed individually; the chat is the shared channel
// flatmates already watch.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID string
}

// NewTelegramNotifier creates a notifier posting to the given chat.
func NewTelegramNotifier(token, chatID string) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: chatID}, nil
}

// Notify formats the event and sends it to the chat.
func (n *TelegramNotifier) Notify(ctx context.Context, event string, payload map[string]any, recipientIDs []string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   formatEvent(event, payload),
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}

	hashed := make([]string, len(recipientIDs))
	for i, id := range recipientIDs {
		hashed[i] = logger.HashMemberID(id)
	}
	logger.Log.Debug().
		Str("event", event).
		Strs("recipients", hashed).
		Msg("Telegram notification sent")
	return nil
}

var eventHeadlines = map[string]string{
	EventObligationCreated:   "New bill",
	EventSharePaid:           "Share paid",
	EventSplitExpenseCreated: "New split expense",
	EventParticipantPaid:     "Split expense payment",
}

func formatEvent(event string, payload map[string]any) string {
	headline, ok := eventHeadlines[event]
	if !ok {
		headline = event
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(headline)
	for _, k := range keys {
		// IDs are routing detail, not chat content.
		if strings.HasSuffix(k, "_id") {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %v", strings.ReplaceAll(k, "_", " "), payload[k])
	}
	return b.String()
}
