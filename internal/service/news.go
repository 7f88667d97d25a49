package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/piprotocol/miniapp-backend/internal/apperror"
	"github.com/piprotocol/miniapp-backend/internal/model"
	"github.com/piprotocol/miniapp-backend/internal/repository"
)

const maxNewsTitleLength = 200

// NewsService serves the read-only feed and lets an operator post to it.
// The core never mutates news — items are immutable once created.
type NewsService struct {
	news   repository.NewsRepository
	logger *slog.Logger
}

// NewNewsService creates a NewsService.
func NewNewsService(news repository.NewsRepository, logger *slog.Logger) *NewsService {
	return &NewsService{
		news:   news,
		logger: logger,
	}
}

// List returns the feed, newest first.
func (s *NewsService) List(ctx context.Context) ([]model.News, error) {
	items, err := s.news.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing news: %w", err)
	}
	return items, nil
}

// Create validates and publishes a feed item.
func (s *NewsService) Create(ctx context.Context, title, content string) (*model.News, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "news title is required")
	}
	if len(title) > maxNewsTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("news title must be %d characters or less", maxNewsTitleLength))
	}

	item := &model.News{
		Title:   title,
		Content: strings.TrimSpace(content),
	}
	if err := s.news.Create(ctx, item); err != nil {
		s.logger.Error("failed to create news item",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating news item: %w", err)
	}

	s.logger.Info("news item published",
		slog.Int64("id", item.ID),
		slog.String("title", item.Title),
	)

	return item, nil
}
