package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends push notifications as messages to a fixed chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
}

// NewTelegram creates a Telegram transport with the given bot token and
// destination chat.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

// Name identifies the transport in logs.
func (t *Telegram) Name() string { return "telegram" }

// Notify sends the notification as a single message with the link on
// its own line.
func (t *Telegram) Notify(_ context.Context, n Notification) error {
	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteString("\n\n")
	b.WriteString(n.Message)
	if n.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(n.URL)
	}

	msg := tgbotapi.NewMessage(t.chatID, b.String())
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
