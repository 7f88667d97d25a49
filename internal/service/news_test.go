package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
)

func newTestNewsService(t *testing.T) *NewsService {
	t.Helper()
	return NewNewsService(newMockNewsRepo(), testLogger(t))
}

func TestNewsCreate_TrimsAndPublishes(t *testing.T) {
	svc := newTestNewsService(t)

	item, err := svc.Create(context.Background(), "  Launch Week  ", "  We are live.  ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if item.Title != "Launch Week" {
		t.Errorf("Title = %q, want trimmed", item.Title)
	}
	if item.Content != "We are live." {
		t.Errorf("Content = %q, want trimmed", item.Content)
	}
	if item.ID == 0 {
		t.Error("ID should be assigned on create")
	}
}

func TestNewsCreate_TitleRequired(t *testing.T) {
	svc := newTestNewsService(t)

	_, err := svc.Create(context.Background(), "   ", "body")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestNewsCreate_TitleTooLong(t *testing.T) {
	svc := newTestNewsService(t)

	_, err := svc.Create(context.Background(), strings.Repeat("x", maxNewsTitleLength+1), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestNewsList_NewestFirst(t *testing.T) {
	svc := newTestNewsService(t)

	for _, title := range []string{"first", "second", "third"} {
		if _, err := svc.Create(context.Background(), title, ""); err != nil {
			t.Fatalf("Create(%q) error = %v", title, err)
		}
	}

	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	if items[0].Title != "third" || items[2].Title != "first" {
		t.Errorf("order = [%s %s %s], want newest first",
			items[0].Title, items[1].Title, items[2].Title)
	}
}
