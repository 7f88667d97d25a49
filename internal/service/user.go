// Package service contains the business logic layer of the application.
//
// The layering mirrors the rest of the codebase:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → resolves identifiers, enforces rules
//	Repository (data layer)  → reads/writes the database
//
// Services receive repository interfaces, not *sqlite.DB — tests inject
// in-memory fakes, production injects SQLite, and nothing here knows the
// difference.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/repository"
)

// UserService resolves loosely-typed identifiers to user records and
// provisions users on first contact.
//
// Mini-app clients are sloppy about identity: the same user may arrive as a
// numeric id (from a referral deep link), a numeric string, or a display
// name. All of that is normalised here, once, and the rest of the app only
// ever sees model.User.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Resolve maps an identifier to an existing user, or ErrNotFound.
//
// Lookup order: a numeric identifier is tried as an id first; if no row has
// that id — or the identifier was never numeric — the string form is tried
// as a username. So "12345" finds user #12345 if one exists, else a user
// literally named "12345". No side effects on any path.
func (s *UserService) Resolve(ctx context.Context, ident model.Identifier) (*model.User, error) {
	if ident.IsZero() {
		return nil, apperror.ValidationFailed("identifier", "user identifier is required")
	}

	if id, ok := ident.Numeric(); ok {
		user, err := s.users.FindByID(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		// Fall through: no user with that id, try the name form.
	}

	return s.users.FindByUsername(ctx, ident.Name())
}

// Get fetches a user strictly by id. Used by authenticated paths where the
// id comes from a validated token and a miss is a hard 404.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

// Ensure finds the user for an identifier, creating one if absent. It always
// yields a user unless the store itself fails.
//
// Username choice for a new user: the trimmed suggestion if one was given,
// else "user_<id>" for numeric identifiers, else the identifier verbatim.
// If the candidate is taken, "_1", "_2", … are appended — lowest unused
// suffix wins, so existing alice and alice_1 make the next one alice_2.
//
// A unique-constraint race (two requests creating the same name at once) is
// retried once by re-resolving — the raced winner is simply fetched. A
// second conflict surfaces as ErrConflict.
//
// For a pre-existing user, a non-empty suggestion that differs from the
// current name is adopted when free (rename-on-better-info); a collision
// just means no rename, never a failure.
func (s *UserService) Ensure(ctx context.Context, ident model.Identifier, suggestedUsername string) (*model.User, error) {
	return s.ensure(ctx, ident, suggestedUsername, true)
}

func (s *UserService) ensure(ctx context.Context, ident model.Identifier, suggestedUsername string, retryOnConflict bool) (*model.User, error) {
	user, err := s.Resolve(ctx, ident)
	if err == nil {
		return s.applyRename(ctx, user, suggestedUsername), nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	candidate := strings.TrimSpace(suggestedUsername)
	if candidate == "" {
		if id, ok := ident.Numeric(); ok {
			candidate = fmt.Sprintf("user_%d", id)
		} else {
			candidate = ident.Name()
		}
	}

	username, err := s.availableUsername(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("finding free username for %q: %w", candidate, err)
	}

	user = &model.User{Username: username}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) && retryOnConflict {
			// Lost a creation race. The winner now resolves normally, or a
			// fresh suffix is computed — either way, one more pass.
			s.logger.Warn("user creation raced, retrying",
				slog.String("username", username),
			)
			return s.ensure(ctx, ident, suggestedUsername, false)
		}
		return nil, fmt.Errorf("creating user %q: %w", username, err)
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// availableUsername returns candidate, or candidate with the lowest unused
// integer suffix appended once the bare name is taken.
func (s *UserService) availableUsername(ctx context.Context, candidate string) (string, error) {
	name := candidate
	for suffix := 1; ; suffix++ {
		_, err := s.users.FindByUsername(ctx, name)
		if errors.Is(err, apperror.ErrNotFound) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
		// Taken — try the next suffix.
		name = fmt.Sprintf("%s_%d", candidate, suffix)
	}
}

// applyRename adopts a better display name for an existing user when the
// suggestion is non-empty, different, and not held by anyone else. It never
// fails the surrounding operation: a collision (including one raced in
// between the check and the update) or a store hiccup leaves the current
// name in place.
func (s *UserService) applyRename(ctx context.Context, user *model.User, suggestedUsername string) *model.User {
	name := strings.TrimSpace(suggestedUsername)
	if name == "" || name == user.Username {
		return user
	}

	_, err := s.users.FindByUsername(ctx, name)
	if err == nil {
		// Someone already holds the name; keep the current one.
		return user
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Error("rename lookup failed",
			slog.Int64("id", user.ID),
			slog.String("error", err.Error()),
		)
		return user
	}

	previous := user.Username
	user.Username = name
	if err := s.users.Update(ctx, user); err != nil {
		user.Username = previous
		s.logger.Warn("rename not applied",
			slog.Int64("id", user.ID),
			slog.String("to", name),
			slog.String("error", err.Error()),
		)
		return user
	}

	s.logger.Info("user renamed",
		slog.Int64("id", user.ID),
		slog.String("from", previous),
		slog.String("to", name),
	)

	return user
}
