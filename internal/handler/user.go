package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/auth"
	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/service"
)

// UserHandler serves registration and the authenticated profile view.
type UserHandler struct {
	users       *service.UserService
	referrals   *service.ReferralService
	balances    *service.BalanceService
	tokens      *auth.TokenService
	botUsername string
	logger      *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(
	users *service.UserService,
	referrals *service.ReferralService,
	balances *service.BalanceService,
	tokens *auth.TokenService,
	botUsername string,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		users:       users,
		referrals:   referrals,
		balances:    balances,
		tokens:      tokens,
		botUsername: botUsername,
		logger:      logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`

	// Referral is the inviter: a numeric id from the deep link, or a
	// username. Absent or null means no referral.
	Referral model.Identifier `json:"referral"`
}

// profileView is the common response body for register and profile.
type profileView struct {
	ID             int64               `json:"id"`
	Username       string              `json:"username"`
	Coins          float64             `json:"coins"`
	ReferralsCount int                 `json:"referralsCount"`
	ReferralLink   string              `json:"referralLink"`
	Transactions   []model.Transaction `json:"transactions,omitempty"`
}

type registerResponse struct {
	Token string `json:"token"`
	profileView
}

// HandleRegister provisions-or-fetches a user by username and issues a JWT.
//
// HTTP: POST /api/register
// BODY: {"username": "alice", "referral": 42}
//
// Registration is idempotent: the mini-app calls it on every open, and an
// existing username just gets a fresh token. A referral that cannot be
// linked (unknown inviter, self-referral, already referred) does not fail
// registration — the user still gets in, and the reason is logged.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, apperror.ValidationFailed("username", "username is required"))
		return
	}

	user, err := h.users.Ensure(r.Context(), model.ParseIdentifier(req.Username), req.Username)
	if err != nil {
		h.logger.Error("registration failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	if !req.Referral.IsZero() {
		result, err := h.referrals.Link(r.Context(),
			req.Referral, model.NumericIdentifier(user.ID), req.Username)
		if err != nil {
			h.logger.Warn("referral link skipped",
				slog.Int64("user", user.ID),
				slog.String("referral", req.Referral.String()),
				slog.String("error", err.Error()),
			)
		} else if result.Status != service.StatusLinked {
			h.logger.Info("referral link not applied",
				slog.Int64("user", user.ID),
				slog.String("status", string(result.Status)),
			)
		}
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error("token generation failed",
			slog.Int64("user", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Token:       token,
		profileView: h.profileView(r, user, nil),
	})
}

// HandleProfile returns the authenticated user's profile with their recent
// earning history.
//
// HTTP: GET /api/profile (bearer JWT)
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	transactions, err := h.balances.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load transaction history",
			slog.Int64("user", userID),
			slog.String("error", err.Error()),
		)
		transactions = []model.Transaction{}
	}

	writeJSON(w, http.StatusOK, h.profileView(r, user, transactions))
}

// profileView assembles the shared response body. The referral count is
// best-effort: a failed stats lookup logs and reports zero rather than
// failing the whole request.
func (h *UserHandler) profileView(r *http.Request, user *model.User, transactions []model.Transaction) profileView {
	count := 0
	stats, err := h.referrals.Stats(r.Context(), model.NumericIdentifier(user.ID))
	if err != nil {
		h.logger.Warn("failed to count referrals",
			slog.Int64("user", user.ID),
			slog.String("error", err.Error()),
		)
	} else {
		count = stats.Invited
	}

	return profileView{
		ID:             user.ID,
		Username:       user.Username,
		Coins:          user.Coins,
		ReferralsCount: count,
		ReferralLink:   fmt.Sprintf("https://t.me/%s?start=%d", h.botUsername, user.ID),
		Transactions:   transactions,
	}
}
