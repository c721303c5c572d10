package sqlite

import (
	"database/sql"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
)

type userRow struct {
	ID           int64        `db:"id"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	Phone        string       `db:"phone"`
	Birthday     sql.NullTime `db:"birthday"`
	Info         string       `db:"info"`
	ImageFile    string       `db:"image_file"`
	IsActive     bool         `db:"is_active"`
	LastSeen     sql.NullTime `db:"last_seen"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

const userColumns = `id, username, email, password_hash, phone, birthday, info,
	image_file, is_active, last_seen, created_at, updated_at`

type postRow struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Content         string    `db:"content"`
	CreatedAt       time.Time `db:"created_at"`
	UserID          int64     `db:"user_id"`
	AuthorUsername  string    `db:"author_username"`
	AuthorImageFile string    `db:"author_image_file"`
}

const postSelect = `SELECT p.id, p.title, p.content, p.created_at, p.user_id,
	u.username AS author_username, u.image_file AS author_image_file
FROM posts p
JOIN users u ON u.id = p.user_id`

func mapUser(row userRow) domain.User {
	return domain.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Phone:        row.Phone,
		Birthday:     mapNullTimePtr(row.Birthday),
		Info:         row.Info,
		ImageFile:    row.ImageFile,
		IsActive:     row.IsActive,
		LastSeen:     mapNullTimePtr(row.LastSeen),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func mapPost(row postRow) domain.Post {
	return domain.Post{
		ID:        row.ID,
		Title:     row.Title,
		Content:   row.Content,
		CreatedAt: row.CreatedAt.UTC(),
		UserID:    row.UserID,
		Author: domain.Author{
			ID:        row.UserID,
			Username:  row.AuthorUsername,
			ImageFile: row.AuthorImageFile,
		},
	}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
