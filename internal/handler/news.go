package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/auth"
	"github.com/piprotocol/miniapp-backend/internal/service"
)

// NewsHandler serves the announcement feed.
type NewsHandler struct {
	news     *service.NewsService
	adminKey *auth.AdminKeyService
	logger   *slog.Logger
}

// NewNewsHandler creates a NewsHandler.
func NewNewsHandler(news *service.NewsService, adminKey *auth.AdminKeyService, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{news: news, adminKey: adminKey, logger: logger}
}

// HandleList returns the feed, newest first. Public — the mini-app shows it
// on the home screen before any auth happens.
//
// HTTP: GET /api/news
func (h *NewsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.news.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list news", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type newsCreateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// HandleCreate publishes a feed item. Operator-only: the X-Admin-Key header
// must match the configured bcrypt hash.
//
// HTTP: POST /api/news
// BODY: {"title": "...", "content": "..."}
func (h *NewsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.adminKey.Verify(r.Header.Get("X-Admin-Key")); err != nil {
		h.logger.Warn("rejected news publish", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("valid admin key required"))
		return
	}

	var req newsCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	item, err := h.news.Create(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}
