// Package bot relays Telegram webhook updates to chat replies.
//
// The bot itself is stateless: greeting on /start, echo on everything else.
// Game state lives entirely behind the HTTP API the mini-app talks to — the
// chat surface only exists so the bot responds when someone messages it
// directly instead of opening the mini-app.
package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	startReply = "سلام 👋 به بازی کلیکی خوش آمدید!"
	echoPrefix = "شما نوشتید: "
)

// sender is the slice of tgbotapi.BotAPI the relay uses. Tests substitute a
// recording fake.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Relay answers incoming webhook updates.
type Relay struct {
	api    sender
	logger *slog.Logger
}

// New creates a Relay backed by the Telegram bot API. It fails if the token
// is rejected — the caller typically logs a warning and runs without the
// chat surface.
func New(token string, logger *slog.Logger) (*Relay, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot: connecting to telegram: %w", err)
	}
	logger.Info("telegram bot connected", slog.String("username", api.Self.UserName))
	return &Relay{api: api, logger: logger}, nil
}

// HandleUpdate replies to a single webhook update. Non-message updates and
// empty texts are ignored. Send failures are logged, not returned — Telegram
// retries webhook deliveries on non-200 responses, and re-answering the same
// message is worse than dropping one reply.
func (r *Relay) HandleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	text := update.Message.Text
	reply := echoPrefix + text
	// /start may carry a deep-link payload after a space.
	if text == "/start" || strings.HasPrefix(text, "/start ") {
		reply = startReply
	}

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, reply)
	if _, err := r.api.Send(msg); err != nil {
		r.logger.Error("failed to send reply",
			slog.Int64("chat", update.Message.Chat.ID),
			slog.String("error", err.Error()),
		)
	}
}
