package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/bot"
)

// WebhookHandler receives Telegram webhook deliveries and hands them to the
// bot relay. The relay may be nil when no BOT_TOKEN is configured — the
// endpoint then accepts and drops updates so Telegram doesn't retry forever.
type WebhookHandler struct {
	relay  *bot.Relay
	logger *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(relay *bot.Relay, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{relay: relay, logger: logger}
}

type webhookResponse struct {
	Status string `json:"status"`
}

// HandleUpdate processes one webhook delivery.
//
// HTTP: POST /webhook
//
// Always answers 200 for a parseable update: a non-200 makes Telegram
// redeliver, and the relay already treats send failures as final.
func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid update payload"))
		return
	}

	if h.relay == nil {
		h.logger.Debug("webhook update dropped, bot relay disabled")
	} else {
		h.relay.HandleUpdate(update)
	}

	writeJSON(w, http.StatusOK, webhookResponse{Status: "ok"})
}
