package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"CoinSentinel/internal/logger"
)

// CommandHandler is called when a user command is received. It returns the reply text.
type CommandHandler func(ctx context.Context, command string) string

// allowed reports whether chatID is one of the configured chats.
func (t *TelegramNotifier) allowed(chatID int64) bool {
	for _, id := range t.chatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
// Commands from chats that are not configured are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			logger.Info("Telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || !msg.IsCommand() {
				continue
			}
			if !t.allowed(msg.Chat.ID) {
				logger.Warn("ignoring command from unknown chat %d", msg.Chat.ID)
				continue
			}
			command := "/" + strings.ToLower(msg.Command())
			logger.Info("received command: %s", command)

			reply := handler(ctx, command)
			if reply == "" {
				continue
			}
			if err := t.sendTo(msg.Chat.ID, reply); err != nil {
				logger.Error("send reply: %v", err)
			}
		}
	}
}
