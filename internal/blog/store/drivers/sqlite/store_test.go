package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/aussiebroadwan/billboard/internal/blog/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func createUser(t *testing.T, s store.Store, username, email string) int64 {
	t.Helper()

	id, err := s.Users().CreateUser(context.Background(), domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return id
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsersCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := createUser(t, s, "alice", "alice@example.com")
	require.Positive(t, id)

	byID, err := s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)
	require.Equal(t, domain.DefaultImageFile, byID.ImageFile)
	require.False(t, byID.IsActive)
	require.NotNil(t, byID.LastSeen)
	require.Nil(t, byID.Birthday)

	byEmail, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, id, byEmail.ID)

	byName, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, id, byName.ID)

	_, err = s.Users().GetUserByID(ctx, id+100)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersUniqueConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createUser(t, s, "alice", "alice@example.com")

	_, err := s.Users().CreateUser(ctx, domain.User{Username: "other", Email: "alice@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	var conflict *store.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "email", conflict.Field)

	_, err = s.Users().CreateUser(ctx, domain.User{Username: "alice", Email: "new@example.com", PasswordHash: "h"})
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "username", conflict.Field)

	users, err := s.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestUsersUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createUser(t, s, "alice", "alice@example.com")

	birthday := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
	pic := "0123456789abcdef.png"
	require.NoError(t, s.Users().UpdateProfile(ctx, id, domain.ProfileUpdate{
		Username:  "alice2",
		Email:     "alice2@example.com",
		Phone:     "555-0100",
		Birthday:  &birthday,
		Info:      "hello",
		ImageFile: &pic,
	}))

	u, err := s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice2", u.Username)
	require.Equal(t, "alice2@example.com", u.Email)
	require.Equal(t, "555-0100", u.Phone)
	require.NotNil(t, u.Birthday)
	require.True(t, birthday.Equal(*u.Birthday))
	require.Equal(t, pic, u.ImageFile)

	// nil ImageFile keeps the current avatar
	require.NoError(t, s.Users().UpdateProfile(ctx, id, domain.ProfileUpdate{Username: "alice2", Email: "alice2@example.com"}))
	u, err = s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, pic, u.ImageFile)
	require.Nil(t, u.Birthday)

	require.NoError(t, s.Users().SetActive(ctx, id, true))
	u, _ = s.Users().GetUserByID(ctx, id)
	require.True(t, u.IsActive)

	seen := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Users().TouchLastSeen(ctx, id, seen))
	u, _ = s.Users().GetUserByID(ctx, id)
	require.True(t, seen.Equal(*u.LastSeen))

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, id, "new-hash"))
	u, _ = s.Users().GetUserByID(ctx, id)
	require.Equal(t, "new-hash", u.PasswordHash)

	require.ErrorIs(t, s.Users().SetActive(ctx, 999, true), store.ErrNotFound)
}

func TestUsersDeactivateIdle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cutoff := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	stale := createUser(t, s, "stale", "stale@example.com")
	fresh := createUser(t, s, "fresh", "fresh@example.com")
	never := createUser(t, s, "never", "never@example.com")
	offline := createUser(t, s, "offline", "offline@example.com")

	for _, id := range []int64{stale, fresh, never} {
		require.NoError(t, s.Users().SetActive(ctx, id, true))
	}
	require.NoError(t, s.Users().TouchLastSeen(ctx, stale, cutoff.Add(-time.Minute)))
	require.NoError(t, s.Users().TouchLastSeen(ctx, fresh, cutoff.Add(time.Minute)))
	require.NoError(t, s.Users().TouchLastSeen(ctx, offline, cutoff.Add(-time.Hour)))

	n, err := s.Users().DeactivateIdle(ctx, cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	for id, want := range map[int64]bool{stale: false, fresh: true, never: false, offline: false} {
		u, err := s.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, u.IsActive, u.Username)
	}
}

func TestPostsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice", "alice@example.com")
	bob := createUser(t, s, "bob", "bob@example.com")

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	insert := func(title string, user int64, at time.Time) int64 {
		id, err := s.Posts().CreatePost(ctx, domain.Post{Title: title, Content: "c", UserID: user, CreatedAt: at})
		require.NoError(t, err)
		return id
	}

	insert("oldest", alice, base)
	insert("newest", bob, base.Add(2*time.Hour))
	insert("middle", alice, base.Add(500*time.Millisecond))
	insert("middle-tie", bob, base.Add(500*time.Millisecond))

	posts, err := s.Posts().ListPostsNewestFirst(ctx, 0)
	require.NoError(t, err)

	var titles []string
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	require.Equal(t, []string{"newest", "middle-tie", "middle", "oldest"}, titles)
	require.Equal(t, "bob", posts[0].Author.Username)
	require.Equal(t, domain.DefaultImageFile, posts[0].Author.ImageFile)

	limited, err := s.Posts().ListPostsNewestFirst(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	byAlice, err := s.Posts().ListPostsByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, byAlice, 2)
	require.Equal(t, "middle", byAlice[0].Title)
}

func TestPostsGetAndForeignKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice", "alice@example.com")

	id, err := s.Posts().CreatePost(ctx, domain.Post{Title: "t", Content: "body", UserID: alice})
	require.NoError(t, err)

	p, err := s.Posts().GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "body", p.Content)
	require.Equal(t, alice, p.Author.ID)
	require.False(t, p.CreatedAt.IsZero())

	_, err = s.Posts().GetPost(ctx, id+1)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Posts().CreatePost(ctx, domain.Post{Title: "orphan", Content: "c", UserID: 4242})
	require.Error(t, err)
}

func TestWithTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, domain.User{Username: "ghost", Email: "ghost@example.com", PasswordHash: "h"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, domain.User{Username: "kept", Email: "kept@example.com", PasswordHash: "h"})
		return err
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByEmail(ctx, "kept@example.com")
	require.NoError(t, err)
}
