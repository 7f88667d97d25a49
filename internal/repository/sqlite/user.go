package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/repository"
)

// UserDB implements repository.UserRepository over the shared pool.
// Obtain one via DB.Users().
type UserDB struct {
	conn *sql.DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user and fills ID and CreatedAt on the passed struct.
//
// The row is written in a single INSERT with every invariant field present —
// a user never exists without its created_at or with a dangling referral.
// A duplicate username surfaces as apperror.ErrConflict so the provisioning
// service can retry the lookup (the raced winner already holds the name).
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, coins, created_at, referred_by, activated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username,
		user.Coins,
		user.CreatedAt,
		nullableID(user.ReferredBy),
		nullableTime(user.ActivatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// Update persists username, coins, referred_by and activated_at for an
// existing user. A username collision (rename race) maps to ErrConflict;
// the rename rule treats that as "no rename", never as a failure.
func (db *UserDB) Update(ctx context.Context, user *model.User) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, coins = ?, referred_by = ?, activated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Coins,
		nullableID(user.ReferredBy),
		nullableTime(user.ActivatedAt),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %d: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", strconv.FormatInt(user.ID, 10))
	}

	return nil
}

// FindByID retrieves a user by their numeric id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *UserDB) FindByID(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, coins, created_at, referred_by, activated_at
		 FROM users WHERE id = ?`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return user, nil
}

// FindByUsername retrieves a user by their exact display name.
func (db *UserDB) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, coins, created_at, referred_by, activated_at
		 FROM users WHERE username = ?`,
		username,
	)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return user, nil
}

// FindByReferrer returns the direct invitees of a user, newest first.
// The id tiebreak keeps ordering deterministic when two invitees share a
// creation timestamp.
func (db *UserDB) FindByReferrer(ctx context.Context, referrerID int64) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, coins, created_at, referred_by, activated_at
		 FROM users WHERE referred_by = ?
		 ORDER BY created_at DESC, id DESC`,
		referrerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing invitees of %d: %w", referrerID, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning invitee of %d: %w", referrerID, err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating invitees of %d: %w", referrerID, err)
	}

	return users, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows, so one scan helper
// serves the single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u           model.User
		referredBy  sql.NullInt64
		activatedAt sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Coins, &u.CreatedAt, &referredBy, &activatedAt); err != nil {
		return nil, err
	}
	if referredBy.Valid {
		u.ReferredBy = &referredBy.Int64
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		u.ActivatedAt = &t
	}
	return &u, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
