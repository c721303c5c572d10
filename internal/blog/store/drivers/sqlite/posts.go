package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/jmoiron/sqlx"
)

type postsRepo struct {
	q sqlx.ExtContext
}

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) (int64, error) {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO posts (title, content, created_at, user_id) VALUES (?, ?, ?, ?)`,
		p.Title, p.Content, createdAt.UTC(), p.UserID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *postsRepo) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	var row postRow
	if err := sqlx.GetContext(ctx, r.q, &row, postSelect+` WHERE p.id = ?`, id); err != nil {
		return domain.Post{}, mapNotFound(err)
	}
	return mapPost(row), nil
}

func (r *postsRepo) ListPostsNewestFirst(ctx context.Context, limit int) ([]domain.Post, error) {
	query := postSelect + ` ORDER BY p.created_at DESC, p.id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *postsRepo) ListPostsByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	return r.list(ctx, postSelect+` WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC`, userID)
}

func (r *postsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	var rows []postRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, mapPost(row))
	}
	return posts, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
