package model

import "time"

// Transaction types. The backend only ever writes "earn" entries today;
// "spend" is reserved for future conversion/withdrawal flows.
const (
	TransactionEarn  = "earn"
	TransactionSpend = "spend"
)

// Transaction is one entry in a user's earning history, shown on the
// wallet screen after a mine or claim.
//
// This is an audit trail, not a ledger: the balance of record is
// User.Coins, and transactions are never replayed to reconstruct it.
//
// The ID is an xid string (sortable, URL-safe) rather than an integer —
// transactions are only ever addressed individually, never counted on.
type Transaction struct {
	ID        string    `json:"id"        db:"id"`
	UserID    int64     `json:"userId"    db:"user_id"`
	Type      string    `json:"type"      db:"type"`
	Amount    float64   `json:"amount"    db:"amount"`
	Note      string    `json:"note"      db:"note"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
