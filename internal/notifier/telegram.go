// Package notifier delivers pipeline messages to Telegram or the log.
package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"CoinSentinel/internal/logger"
)

// Notifier sends a pre-formatted HTML message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// LogNotifier writes messages to the log. Used when Telegram is disabled.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, text string) error {
	logger.Info("notification:\n%s", text)
	return nil
}

// ParseChatIDs converts a list of chat id strings into Telegram chat ids.
func ParseChatIDs(ids []string) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	for _, raw := range ids {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID %q: %w", raw, err)
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no chat IDs configured")
	}
	return out, nil
}

// TelegramNotifier sends messages to one or more chats via the Telegram Bot API.
type TelegramNotifier struct {
	bot        *tgbotapi.BotAPI
	chatIDs    []int64
	MaxRetries int
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken string, chatIDs []string, proxyURL string) (*TelegramNotifier, error) {
	ids, err := ParseChatIDs(chatIDs)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{
		Timeout:   70 * time.Second, // above the long-poll timeout
		Transport: transport,
	}

	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized as @%s, %d chat(s)", bot.Self.UserName, len(ids))
	return &TelegramNotifier{bot: bot, chatIDs: ids, MaxRetries: 3}, nil
}

// sendTo sends an HTML message to a single chat.
func (t *TelegramNotifier) sendTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// Send delivers text to every configured chat, retrying each with exponential backoff.
// A failure for one chat does not stop delivery to the others.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	var failed []string
	for _, id := range t.chatIDs {
		if err := t.sendWithRetry(ctx, id, text); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("telegram delivery to %d failed: %v", id, err)
			failed = append(failed, strconv.FormatInt(id, 10))
			continue
		}
		logger.Info("message sent to Telegram chat %d", id)
	}
	if len(failed) > 0 {
		return fmt.Errorf("telegram delivery failed for chat(s) %s", strings.Join(failed, ", "))
	}
	return nil
}

func (t *TelegramNotifier) sendWithRetry(ctx context.Context, chatID int64, text string) error {
	var lastErr error
	for i := 0; i <= t.MaxRetries; i++ {
		err := t.sendTo(chatID, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == t.MaxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		logger.Warn("Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, t.MaxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", t.MaxRetries+1, lastErr)
}
