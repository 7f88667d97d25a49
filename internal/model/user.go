// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a player of the tap-to-earn mini-app.
//
// WHY ID int64?
// The numeric id is system-assigned (SQLite AUTOINCREMENT) and doubles as the
// referral code: the invite deep link carries it as the ?start= parameter, and
// the same number comes back later as an inviterCode. int64 matches what
// database/sql returns from LastInsertId.
//
// WHY ReferredBy *int64 (not int64)?
// Most users were never referred, and "no inviter" must be distinguishable
// from "referred by user 0". A nil pointer is the natural null here and maps
// directly to a nullable column. The field is set at most once and never
// cleared — linking is one-time and one-level.
//
// ActivatedAt records the first time the balance crossed from ≤0 to >0.
// It is sticky: once set it never changes, even if coins later dip and rise
// again.
type User struct {
	ID          int64      `json:"id"          db:"id"`
	Username    string     `json:"username"    db:"username"` // globally unique display name
	Coins       float64    `json:"coins"       db:"coins"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	ReferredBy  *int64     `json:"referredBy,omitempty"  db:"referred_by"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty" db:"activated_at"`
}

// Active reports whether the user counts as an active invitee.
// Activity is defined purely as a positive balance; no exposed operation
// ever decrements coins, so in practice this is permanent after the first
// credit.
func (u *User) Active() bool {
	return u.Coins > 0
}
