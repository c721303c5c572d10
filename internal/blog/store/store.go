package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// ConflictError reports which unique column rejected a write. It matches
// ErrAlreadyExists with errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: %s already exists", e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrAlreadyExists }

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so transactions can only be opened from the root.
type Store interface {
	Users() Users
	Posts() Posts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// ListUsers returns every account ordered by id.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts u and returns the assigned id. Duplicate username or
	// email yields a *ConflictError.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdateProfile rewrites the editable profile columns and bumps updated_at.
	UpdateProfile(ctx context.Context, userID int64, p domain.ProfileUpdate) error

	SetActive(ctx context.Context, userID int64, active bool) error

	// TouchLastSeen records activity at the given instant.
	TouchLastSeen(ctx context.Context, userID int64, at time.Time) error

	// DeactivateIdle marks online users offline when they have not been seen
	// since seenBefore, returning how many changed.
	DeactivateIdle(ctx context.Context, seenBefore time.Time) (int64, error)

	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error
}

type Posts interface {
	// CreatePost inserts p and returns the assigned id.
	CreatePost(ctx context.Context, p domain.Post) (int64, error)

	// GetPost returns a post joined with its author.
	GetPost(ctx context.Context, id int64) (domain.Post, error)

	// ListPostsNewestFirst orders by created_at descending with id as the
	// tie-breaker. A limit of zero returns everything.
	ListPostsNewestFirst(ctx context.Context, limit int) ([]domain.Post, error)

	// ListPostsByUser is ListPostsNewestFirst restricted to one author.
	ListPostsByUser(ctx context.Context, userID int64) ([]domain.Post, error)
}
