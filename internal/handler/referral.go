package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/service"
)

// ReferralHandler serves the invite-link endpoints the mini-app's friends
// screen calls. These are unauthenticated: the webview fires them before
// registration has produced a token, so identity arrives in the body.
type ReferralHandler struct {
	referrals *service.ReferralService
	logger    *slog.Logger
}

// NewReferralHandler creates a ReferralHandler.
func NewReferralHandler(referrals *service.ReferralService, logger *slog.Logger) *ReferralHandler {
	return &ReferralHandler{referrals: referrals, logger: logger}
}

type referralRegisterRequest struct {
	// InviterCode comes from the deep link's ?start= payload — usually the
	// inviter's numeric id, but a username also resolves.
	InviterCode model.Identifier `json:"inviterCode"`

	// UserID identifies the invitee; provisioned on the spot if unknown.
	UserID model.Identifier `json:"userId"`

	// Username is an optional display name for a just-provisioned invitee.
	Username string `json:"username"`
}

type referralRegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleRegister links an invitee to their inviter.
//
// HTTP: POST /api/referral/register
// BODY: {"inviterCode": 42, "userId": 1337, "username": "alice"}
//
// Outcome mapping:
//   - linked           → 200 {"success": true}
//   - already referred → 200 {"success": false, "message": "Already invited"}
//     (the first inviter won; this is a normal outcome, not an error)
//   - self-referral    → 400
//   - unknown inviter  → 404
func (h *ReferralHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req referralRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.referrals.Link(r.Context(), req.InviterCode, req.UserID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	switch result.Status {
	case service.StatusLinked:
		h.logger.Info("referral linked",
			slog.Int64("inviter", result.InviterID),
			slog.Int64("invitee", result.InviteeID),
		)
		writeJSON(w, http.StatusOK, referralRegisterResponse{
			Success: true,
			Message: "Referral registered successfully",
		})
	case service.StatusAlreadyReferred:
		writeJSON(w, http.StatusOK, referralRegisterResponse{
			Success: false,
			Message: "Already invited",
		})
	case service.StatusSelfReferral:
		writeError(w, apperror.ValidationFailed("inviterCode", "Cannot refer yourself"))
	default:
		h.logger.Error("unexpected link status", slog.String("status", string(result.Status)))
		writeError(w, apperror.ValidationFailed("inviterCode", "referral could not be registered"))
	}
}

type referralStatsRequest struct {
	UserID model.Identifier `json:"userId"`
}

// HandleStats returns the referral dashboard for one user.
//
// HTTP: POST /api/referral/stats
// BODY: {"userId": 42}
//
// A userId that doesn't resolve to anyone gets a zeroed dashboard, not an
// error — the friends screen renders before first registration completes.
func (h *ReferralHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	var req referralStatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.UserID.IsZero() {
		writeError(w, apperror.ValidationFailed("userId", "User ID is required"))
		return
	}

	stats, err := h.referrals.Stats(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
