package model

import "time"

// News is a feed item shown on the mini-app's news screen.
// Items are immutable after creation and are always read newest-first.
type News struct {
	ID        int64     `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Content   string    `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
