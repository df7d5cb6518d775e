package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends out-of-band notifications about trading activity.
type Notifier interface {
	SendMessage(text string) error
	SendMessagef(format string, args ...interface{}) error
}

type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient creates a Telegram notifier. An empty bot token returns a
// disabled notifier that drops every message.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	if botToken == "" {
		return noopNotifier{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// SendMessage sends a message to the configured Telegram chat.
func (c *client) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

// SendMessagef formats and sends a message.
func (c *client) SendMessagef(format string, args ...interface{}) error {
	return c.SendMessage(fmt.Sprintf(format, args...))
}

type noopNotifier struct{}

func (noopNotifier) SendMessage(string) error                  { return nil }
func (noopNotifier) SendMessagef(string, ...interface{}) error { return nil }
