package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/aussiebroadwan/billboard/internal/blog/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlite.NewStoreFromDB(db), mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"))

	_, err := s.Users().CreateUser(context.Background(), domain.User{Username: "a", Email: "a@b.c"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "username", conflict.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserMapsNoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Users().GetUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassesThroughOtherErrors(t *testing.T) {
	s, mock := newMockStore(t)

	diskErr := errors.New("disk I/O error")
	mock.ExpectExec("UPDATE users SET is_active").WillReturnError(diskErr)

	err := s.Users().SetActive(context.Background(), 1, true)
	require.ErrorIs(t, err, diskErr)
	require.NotErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUpdateWithNoRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET last_seen").WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Users().TouchLastSeen(context.Background(), 7, time.Time{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreSatisfiesInterface(t *testing.T) {
	var _ store.Store = (*sqlite.Store)(nil)
}
