package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/repository"
)

// TransactionDB implements repository.TransactionRepository.
// Obtain one via DB.Transactions().
type TransactionDB struct {
	conn *sql.DB
}

var _ repository.TransactionRepository = (*TransactionDB)(nil)

// Create appends an earning-history entry, generating its xid.
// xid strings sort by creation time, which keeps id ordering and
// created_at ordering consistent.
func (db *TransactionDB) Create(ctx context.Context, tx *model.Transaction) error {
	tx.ID = xid.New().String()
	tx.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Type, tx.Amount, tx.Note, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting transaction for user %d: %w", tx.UserID, err)
	}

	return nil
}

// ListByUser returns the user's most recent transactions, newest first.
func (db *TransactionDB) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, type, amount, note, created_at
		 FROM transactions WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing transactions of %d: %w", userID, err)
	}
	defer rows.Close()

	txs := []model.Transaction{}
	for rows.Next() {
		var tx model.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Note, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning transaction of %d: %w", userID, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating transactions of %d: %w", userID, err)
	}

	return txs, nil
}
