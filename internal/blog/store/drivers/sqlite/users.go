package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/jmoiron/sqlx"
)

type usersRepo struct {
	q sqlx.ExtContext
}

func (r *usersRepo) getOne(ctx context.Context, where string, arg any) (domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `email = ?`, email)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, `username = ?`, username)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, mapUser(row))
	}
	return users, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	now := time.Now().UTC()
	imageFile := u.ImageFile
	if imageFile == "" {
		imageFile = domain.DefaultImageFile
	}

	res, err := r.q.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, phone, birthday, info,
			image_file, is_active, last_seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Phone, mapOptionalTime(u.Birthday), u.Info,
		imageFile, u.IsActive, now, now, now,
	)
	if err != nil {
		return 0, mapConflict(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID int64, p domain.ProfileUpdate) error {
	query := `UPDATE users SET username = ?, email = ?, phone = ?, birthday = ?, info = ?, updated_at = ?`
	args := []any{p.Username, p.Email, p.Phone, mapOptionalTime(p.Birthday), p.Info, time.Now().UTC()}
	if p.ImageFile != nil {
		query += `, image_file = ?`
		args = append(args, *p.ImageFile)
	}
	query += ` WHERE id = ?`
	args = append(args, userID)

	return r.execOne(ctx, query, args...)
}

func (r *usersRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.execOne(ctx, `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), userID)
}

func (r *usersRepo) TouchLastSeen(ctx context.Context, userID int64, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET last_seen = ? WHERE id = ?`, at.UTC(), userID)
}

func (r *usersRepo) DeactivateIdle(ctx context.Context, seenBefore time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET is_active = 0, updated_at = ?
		 WHERE is_active = 1 AND (last_seen IS NULL OR last_seen < ?)`,
		time.Now().UTC(), seenBefore.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
}

// execOne runs a single-row UPDATE and reports store.ErrNotFound when no
// row matched.
func (r *usersRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConflict(err)
	}
	return requireAffected(res)
}
