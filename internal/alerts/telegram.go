package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between two messages to the same chat; Telegram rejects bursts with 429.
const telegramSendInterval = 2 * time.Second

// TelegramSender posts alerts to a Telegram chat.
type TelegramSender struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramSender connects to the bot API and checks the token.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	bot.Debug = false

	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// Send posts text to the chat, spacing messages by telegramSendInterval.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wait := telegramSendInterval - time.Since(s.lastSend); wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	s.lastSend = time.Now()
	return nil
}
