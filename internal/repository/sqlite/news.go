package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/repository"
)

// NewsDB implements repository.NewsRepository. Obtain one via DB.News().
type NewsDB struct {
	conn *sql.DB
}

var _ repository.NewsRepository = (*NewsDB)(nil)

// Create inserts a feed item and fills ID and CreatedAt.
func (db *NewsDB) Create(ctx context.Context, item *model.News) error {
	item.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO news (title, content, created_at) VALUES (?, ?, ?)`,
		item.Title, item.Content, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting news: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new news id: %w", err)
	}
	item.ID = id

	return nil
}

// List returns every feed item, newest first.
func (db *NewsDB) List(ctx context.Context) ([]model.News, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, content, created_at
		 FROM news ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing news: %w", err)
	}
	defer rows.Close()

	items := []model.News{}
	for rows.Next() {
		var n model.News
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning news: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating news: %w", err)
	}

	return items, nil
}
