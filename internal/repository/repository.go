// Package repository declares the storage interfaces the services depend on.
//
// Services receive these interfaces, never a concrete *sqlite.DB — the same
// dependency-injection seam the rest of the app uses. Tests substitute
// in-memory implementations; production wires the sqlite package.
//
// Every method is atomic per call. Implementations must surface a
// unique-constraint violation as apperror.ErrConflict so callers can tell a
// lost creation race apart from a real failure.
package repository

import (
	"context"

	"github.com/piprotocol/miniapp-backend/internal/model"
)

type UserRepository interface {
	// Create inserts a new user and fills in ID and CreatedAt.
	// All invariant fields are written in one statement — there is never a
	// half-created user row.
	Create(ctx context.Context, user *model.User) error

	// Update persists every mutable field of an existing user.
	Update(ctx context.Context, user *model.User) error

	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByReferrer returns the users directly referred by the given id,
	// newest first.
	FindByReferrer(ctx context.Context, referrerID int64) ([]model.User, error)
}

type NewsRepository interface {
	Create(ctx context.Context, item *model.News) error
	// List returns all news items, newest first.
	List(ctx context.Context) ([]model.News, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	// ListByUser returns the user's most recent transactions, newest first,
	// capped at limit.
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Transaction, error)
}
