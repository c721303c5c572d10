package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/aussiebroadwan/billboard/pkg/slogx"
)

type PostService struct {
	Store store.Store

	// Now is overridable in tests.
	Now func() time.Time
}

// Create publishes a post owned by authorID.
func (s *PostService) Create(ctx context.Context, authorID int64, title, content string) (domain.Post, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	id, err := s.Store.Posts().CreatePost(ctx, domain.Post{
		Title:     strings.TrimSpace(title),
		Content:   content,
		CreatedAt: now,
		UserID:    authorID,
	})
	if err != nil {
		return domain.Post{}, err
	}

	slogx.FromContext(ctx).Info("post created",
		slog.Int64("post_id", id),
		slog.Int64("user_id", authorID),
	)
	return s.Get(ctx, id)
}

func (s *PostService) Get(ctx context.Context, id int64) (domain.Post, error) {
	p, err := s.Store.Posts().GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Post{}, ErrPostNotFound
	}
	return p, err
}

// Feed returns every post, newest first.
func (s *PostService) Feed(ctx context.Context) ([]domain.Post, error) {
	return s.Store.Posts().ListPostsNewestFirst(ctx, 0)
}

// ByAuthor returns one user's posts, newest first.
func (s *PostService) ByAuthor(ctx context.Context, userID int64) ([]domain.Post, error) {
	return s.Store.Posts().ListPostsByUser(ctx, userID)
}
