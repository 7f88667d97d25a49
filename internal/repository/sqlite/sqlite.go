// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// The whole backend is a single process serving a Telegram mini-app. An
// embedded database — one file, no server to run — is exactly the right
// weight, and ":memory:" gives the repository tests a real database for free.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 needs CGo and a C compiler; modernc.org/sqlite is a pure
// Go translation of SQLite, so cross-compilation stays trivial.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// The server owns its lifecycle: New opens it, Close releases it on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Fail now on a bad path or permissions, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — the server
	// handles many profile/stats reads per balance write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// referred_by and transactions.user_id reference users(id).
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository view of this database.
//
// One *DB owns the single connection pool; the per-entity wrappers exist so
// each can carry the Create/Update method set of its own interface without
// the method names colliding on *DB.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// News returns the news repository view of this database.
func (db *DB) News() *NewsDB {
	return &NewsDB{conn: db.conn}
}

// Transactions returns the transaction repository view of this database.
func (db *DB) Transactions() *TransactionDB {
	return &TransactionDB{conn: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	// users.username carries the global uniqueness invariant; the insert
	// path depends on the constraint rejecting a raced duplicate.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			username     TEXT NOT NULL UNIQUE,
			coins        REAL NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL,
			referred_by  INTEGER REFERENCES users(id),
			activated_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS news (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_news_created_at ON news(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating news table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id         TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES users(id),
			type       TEXT NOT NULL,
			amount     REAL NOT NULL,
			note       TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating transactions table: %w", err)
	}

	return db.seedNews()
}

// seedNews inserts the launch announcements into an empty news table so a
// fresh deployment has a feed to show. Runs once: any existing row skips it.
func (db *DB) seedNews() error {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM news`).Scan(&count); err != nil {
		return fmt.Errorf("counting news: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		title, content string
	}{
		{
			"🚀 PiProtocol Platform Version 2.0 Roadmap",
			"We are proud to announce that version 2.0 of the PiProtocol platform with new features and improved mining performance will be launched on October 6, 2025.",
		},
		{
			"🤝 Strategic Partnership with BlockChain Solutions",
			"We are happy to announce our strategic partnership with BlockChain Solutions for developing secure and scalable infrastructure. This partnership will allow us to provide better services to our users.",
		},
		{
			"📊 PiProtocol Development Roadmap for 2025",
			"The PiProtocol development roadmap for 2025 has been published. In this roadmap, our plans for launching a dedicated wallet, listing PiP token on major blockchain networks, and a staking system with 12% annual interest have been specified.",
		},
		{
			"🏆 Reaching 100,000 Active Users",
			"We are proud to announce that the number of active users of the PiProtocol platform has exceeded 100,000. We thank all users for their trust and support.",
		},
		{
			"💰 Listing PiP Token on Reputable Exchanges",
			"The PiP token will soon be listed on several reputable digital currency exchanges. This action will increase liquidity and accessibility for more users to the PiP token.",
		},
	}

	now := time.Now()
	for i, item := range seed {
		// Backdate the seed, staggered one second apart, so the feed has a
		// stable order and anything posted after startup sorts above it.
		createdAt := now.Add(-time.Duration(len(seed)-i) * time.Second)
		_, err := db.conn.Exec(
			`INSERT INTO news (title, content, created_at) VALUES (?, ?, ?)`,
			item.title, item.content, createdAt,
		)
		if err != nil {
			return fmt.Errorf("seeding news: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate key.
// The driver exposes the extended result code; the string check covers any
// path where the typed error has been flattened.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
