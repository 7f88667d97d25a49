package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/repository"
)

// LinkStatus is the domain-level outcome of a link attempt. Self-referral
// and already-referred are ordinary outcomes communicated to the client,
// not errors — only a missing inviter or a store failure is an error.
type LinkStatus string

const (
	StatusLinked          LinkStatus = "linked"
	StatusAlreadyReferred LinkStatus = "already_referred"
	StatusSelfReferral    LinkStatus = "self_referral"
)

// LinkResult reports what Link did. InviteeUsername reflects any rename the
// provisioning pass applied, which commits even on the non-Linked paths.
type LinkResult struct {
	Status          LinkStatus
	InviterID       int64
	InviteeID       int64
	InviteeUsername string
}

// InvitedFriend is one row of the "friends you invited" list.
type InvitedFriend struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	InviteDate time.Time `json:"inviteDate"`
	IsActive   bool      `json:"isActive"`
}

// ActiveFriend is one row of the "friends who activated" list.
type ActiveFriend struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	ActiveDate *time.Time `json:"activeDate"`
}

// Stats is the referral dashboard for one user.
type Stats struct {
	Invited        int             `json:"invited"`
	Active         int             `json:"active"`
	InvitedFriends []InvitedFriend `json:"invitedFriends"`
	ActiveFriends  []ActiveFriend  `json:"activeFriends"`
}

// ReferralService establishes inviter→invitee edges and reads them back.
type ReferralService struct {
	users       repository.UserRepository
	provisioner *UserService
	logger      *slog.Logger
}

// NewReferralService creates a ReferralService. The provisioner is the same
// UserService the rest of the app uses — linking an unknown invitee creates
// them on the spot.
func NewReferralService(users repository.UserRepository, provisioner *UserService, logger *slog.Logger) *ReferralService {
	return &ReferralService{
		users:       users,
		provisioner: provisioner,
		logger:      logger,
	}
}

// Link records that inviter invited invitee. The edge is one-level and
// one-time: the first inviter wins forever, a second attempt is a no-op
// with StatusAlreadyReferred.
//
// The inviter must already exist (you cannot be invited by nobody) and is
// resolved strictly; the invitee is provisioned if absent, with
// suggestedUsername passed through so a better display name sticks even
// when the link itself turns out to be a no-op.
//
// Linking grants the inviter no coins. Activation — the invitee actually
// earning — is the referral metric that counts, not the signup itself.
func (s *ReferralService) Link(ctx context.Context, inviterIdent, inviteeIdent model.Identifier, suggestedUsername string) (*LinkResult, error) {
	if inviterIdent.IsZero() {
		return nil, apperror.ValidationFailed("inviterCode", "inviter code is required")
	}
	if inviteeIdent.IsZero() {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}

	inviter, err := s.provisioner.Resolve(ctx, inviterIdent)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("inviter", inviterIdent.Name())
		}
		return nil, fmt.Errorf("resolving inviter %q: %w", inviterIdent, err)
	}

	invitee, err := s.provisioner.Ensure(ctx, inviteeIdent, suggestedUsername)
	if err != nil {
		return nil, fmt.Errorf("provisioning invitee %q: %w", inviteeIdent, err)
	}

	result := &LinkResult{
		InviterID:       inviter.ID,
		InviteeID:       invitee.ID,
		InviteeUsername: invitee.Username,
	}

	if inviter.ID == invitee.ID {
		result.Status = StatusSelfReferral
		return result, nil
	}

	if invitee.ReferredBy != nil {
		result.Status = StatusAlreadyReferred
		return result, nil
	}

	invitee.ReferredBy = &inviter.ID
	if err := s.users.Update(ctx, invitee); err != nil {
		return nil, fmt.Errorf("linking user %d to inviter %d: %w", invitee.ID, inviter.ID, err)
	}

	s.logger.Info("referral linked",
		slog.Int64("inviter", inviter.ID),
		slog.Int64("invitee", invitee.ID),
	)

	result.Status = StatusLinked
	return result, nil
}

// Stats computes the referral dashboard for the identified user: direct
// invitees only (depth one), newest invite first.
//
// An unknown subject yields a zeroed Stats, not an error — the mini-app
// calls this for demo and not-yet-registered identifiers and expects an
// empty dashboard rather than a failure.
func (s *ReferralService) Stats(ctx context.Context, ident model.Identifier) (*Stats, error) {
	stats := &Stats{
		InvitedFriends: []InvitedFriend{},
		ActiveFriends:  []ActiveFriend{},
	}

	subject, err := s.provisioner.Resolve(ctx, ident)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return stats, nil
		}
		return nil, fmt.Errorf("resolving stats subject %q: %w", ident, err)
	}

	invitees, err := s.users.FindByReferrer(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("listing invitees of %d: %w", subject.ID, err)
	}

	for _, friend := range invitees {
		stats.Invited++
		stats.InvitedFriends = append(stats.InvitedFriends, InvitedFriend{
			ID:         friend.ID,
			Username:   friend.Username,
			InviteDate: friend.CreatedAt,
			IsActive:   friend.Active(),
		})
		if friend.Active() {
			stats.Active++
			stats.ActiveFriends = append(stats.ActiveFriends, ActiveFriend{
				ID:         friend.ID,
				Username:   friend.Username,
				ActiveDate: friend.ActivatedAt,
			})
		}
	}

	return stats, nil
}
