package notifier

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/semmidev/offsite/internal/config"
	"github.com/semmidev/offsite/internal/domain"
	"github.com/sethvargo/go-retry"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts notices to a chat.
type Telegram struct {
	bot    telegramSender
	chatID int64
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, n domain.Notice) error {
	icon := "✅"
	if !n.Success {
		icon = "⚠️"
	}
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("%s %s\n\n%s", icon, Subject(n), Body(n)))

	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := t.bot.Send(msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}
