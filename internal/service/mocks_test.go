package service

// Hand-written in-memory fakes for the repository interfaces, shared by the
// service tests in this package. They mimic the two store behaviours the
// services lean on: the username unique constraint (returned as
// apperror.ErrConflict) and newest-first ordering of FindByReferrer and
// ListByUser.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/model"
)

type mockUserRepo struct {
	users  map[int64]*model.User
	nextID int64

	// conflictCreates makes the next N Create calls fail with ErrConflict
	// without storing anything, simulating a lost uniqueness race.
	conflictCreates int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.conflictCreates > 0 {
		m.conflictCreates--
		return apperror.Conflict("user", user.Username)
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	m.nextID++
	user.ID = m.nextID
	// Deterministic, strictly increasing timestamps so ordering assertions
	// don't depend on wall-clock resolution.
	user.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.nextID) * time.Minute)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", fmt.Sprintf("%d", user.ID))
	}
	for id, existing := range m.users {
		if id != user.ID && existing.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprintf("%d", id))
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			result := *user
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) FindByReferrer(_ context.Context, referrerID int64) ([]model.User, error) {
	result := []model.User{}
	for _, user := range m.users {
		if user.ReferredBy != nil && *user.ReferredBy == referrerID {
			result = append(result, *user)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type mockTransactionRepo struct {
	entries []model.Transaction
	nextID  int
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{}
}

func (m *mockTransactionRepo) Create(_ context.Context, tx *model.Transaction) error {
	m.nextID++
	tx.ID = fmt.Sprintf("tx-%d", m.nextID)
	tx.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.nextID) * time.Second)
	m.entries = append(m.entries, *tx)
	return nil
}

func (m *mockTransactionRepo) ListByUser(_ context.Context, userID int64, limit int) ([]model.Transaction, error) {
	result := []model.Transaction{}
	// entries are appended oldest-first; walk backwards for newest-first
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if m.entries[i].UserID == userID {
			result = append(result, m.entries[i])
		}
	}
	return result, nil
}

type mockNewsRepo struct {
	items  []model.News
	nextID int64
}

func newMockNewsRepo() *mockNewsRepo {
	return &mockNewsRepo{}
}

func (m *mockNewsRepo) Create(_ context.Context, item *model.News) error {
	m.nextID++
	item.ID = m.nextID
	item.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.nextID) * time.Hour)
	m.items = append(m.items, *item)
	return nil
}

func (m *mockNewsRepo) List(_ context.Context) ([]model.News, error) {
	result := make([]model.News, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		result = append(result, m.items[i])
	}
	return result, nil
}

// testLogger discards everything below Error so test output stays readable.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
