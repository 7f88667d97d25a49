package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/auth"
	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/service"
)

// MiningHandler serves the two earning endpoints: the manual mine tap and
// the session-reward claim. Both require a bearer token — the user id comes
// from the JWT, never from the body.
type MiningHandler struct {
	balances *service.BalanceService
	logger   *slog.Logger
}

// NewMiningHandler creates a MiningHandler.
func NewMiningHandler(balances *service.BalanceService, logger *slog.Logger) *MiningHandler {
	return &MiningHandler{balances: balances, logger: logger}
}

// balanceResponse is the wallet view returned by mine and claim.
type balanceResponse struct {
	Success      bool                `json:"success"`
	Coins        float64             `json:"coins"`
	Transactions []model.Transaction `json:"transactions"`
}

// HandleMine credits the fixed reward for one tap.
//
// HTTP: POST /api/mine (bearer JWT)
func (h *MiningHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	result, err := h.balances.Mine(r.Context(), userID)
	if err != nil {
		h.logger.Error("mine failed",
			slog.Int64("user", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		Success:      true,
		Coins:        result.User.Coins,
		Transactions: result.Transactions,
	})
}

type claimRequest struct {
	// Amount is decoded loosely: a missing field, null, or malformed value
	// becomes 0, which credits nothing and still succeeds. The client sends
	// whatever its mining session computed.
	Amount json.Number `json:"amount"`
}

// HandleClaim credits a finished mining session's reward.
//
// HTTP: POST /api/claim (bearer JWT)
// BODY: {"amount": 3.25}
func (h *MiningHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Amount = "0"
	}
	amount, err := req.Amount.Float64()
	if err != nil {
		amount = 0
	}

	result, err := h.balances.Claim(r.Context(), userID, amount)
	if err != nil {
		h.logger.Error("claim failed",
			slog.Int64("user", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		Success:      true,
		Coins:        result.User.Coins,
		Transactions: result.Transactions,
	})
}
