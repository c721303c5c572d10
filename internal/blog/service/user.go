package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/aussiebroadwan/billboard/pkg/cryptox"
	"github.com/aussiebroadwan/billboard/pkg/slogx"
)

// PasswordHasher is satisfied by *cryptox.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) error
}

type UserService struct {
	Store  store.Store
	Hasher PasswordHasher

	// Now is overridable in tests.
	Now func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type ProfileInput struct {
	Username string
	Email    string
	Phone    string
	Birthday *time.Time
	Info     string
	// ImageFile is the freshly stored avatar, nil to keep the current one.
	ImageFile *string
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an inactive account. Username and email uniqueness is
// checked up front for friendly errors and enforced again by the database.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	log := slogx.FromContext(ctx)

	u := domain.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     NormalizeEmail(in.Email),
		ImageFile: domain.DefaultImageFile,
		IsActive:  false,
	}

	if err := s.ensureAvailable(ctx, u.Username, u.Email); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}
	u.PasswordHash = hash

	id, err := s.Store.Users().CreateUser(ctx, u)
	if err != nil {
		return domain.User{}, mapConflict(err)
	}

	created, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("reload registered user: %w", err)
	}

	log.Info("user registered", slog.Int64("user_id", id), slog.String("username", u.Username))
	return created, nil
}

// Login checks the credentials and marks the account active. Legacy bcrypt
// hashes are upgraded to argon2id on the way through.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.verifyDummy(password)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("stored password hash could not be verified",
				slog.Int64("user_id", u.ID),
				slog.Any("error", err),
			)
		}
		return domain.User{}, ErrInvalidCredentials
	}

	var newHash string
	if cryptox.NeedsRehash(u.PasswordHash) {
		if newHash, err = s.Hasher.Hash(password); err != nil {
			log.Error("failed to rehash legacy password", slog.Any("error", err))
			newHash = ""
		}
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetActive(ctx, u.ID, true); err != nil {
			return err
		}
		if newHash != "" {
			return tx.Users().UpdatePasswordHash(ctx, u.ID, newHash)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	u.IsActive = true
	if newHash != "" {
		u.PasswordHash = newHash
		log.Info("upgraded legacy password hash", slog.Int64("user_id", u.ID))
	}
	return u, nil
}

// verifyDummy does the work of a real password check so an unknown email
// takes as long to reject as a wrong password.
func (s *UserService) verifyDummy(password string) {
	s.dummyOnce.Do(func() {
		if h, err := s.Hasher.Hash("unknown-account-placeholder"); err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_ = s.Hasher.Verify(password, s.dummyHash)
	}
}

// Logout marks the account inactive. Clearing the session is up to the caller.
func (s *UserService) Logout(ctx context.Context, userID int64) error {
	return s.SetActive(ctx, userID, false)
}

// SetActive is the explicit command behind /status.
func (s *UserService) SetActive(ctx context.Context, userID int64, active bool) error {
	return mapUserNotFound(s.Store.Users().SetActive(ctx, userID, active))
}

// Touch records that the user was seen now.
func (s *UserService) Touch(ctx context.Context, userID int64) error {
	return mapUserNotFound(s.Store.Users().TouchLastSeen(ctx, userID, s.now()))
}

func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	return u, mapUserNotFound(err)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, NormalizeEmail(email))
	return u, mapUserNotFound(err)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// UpdateProfile applies in to the current user. Uniqueness is only checked
// for the fields that actually changed.
func (s *UserService) UpdateProfile(ctx context.Context, current domain.User, in ProfileInput) (domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeEmail(in.Email)

	checkUsername, checkEmail := "", ""
	if username != current.Username {
		checkUsername = username
	}
	if email != current.Email {
		checkEmail = email
	}
	if err := s.ensureAvailable(ctx, checkUsername, checkEmail); err != nil {
		return domain.User{}, err
	}

	err := s.Store.Users().UpdateProfile(ctx, current.ID, domain.ProfileUpdate{
		Username:  username,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Birthday:  in.Birthday,
		Info:      strings.TrimSpace(in.Info),
		ImageFile: in.ImageFile,
	})
	if err != nil {
		return domain.User{}, mapUserNotFound(mapConflict(err))
	}

	slogx.FromContext(ctx).Info("profile updated", slog.Int64("user_id", current.ID))
	return s.GetUserByID(ctx, current.ID)
}

// ensureAvailable reports ErrUsernameTaken or ErrEmailTaken. Empty values
// are skipped.
func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	if username != "" {
		if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	if email != "" {
		if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func mapConflict(err error) error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		switch conflict.Field {
		case "email":
			return ErrEmailTaken
		case "username":
			return ErrUsernameTaken
		}
	}
	return err
}

func mapUserNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
