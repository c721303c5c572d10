package domain

import "time"

// DefaultImageFile is the avatar every account starts with.
const DefaultImageFile = "default.jpg"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string // argon2id PHC string, or a legacy bcrypt hash
	Phone        string
	Birthday     *time.Time // calendar date, nil when unset
	Info         string
	ImageFile    string
	IsActive     bool
	LastSeen     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the fields a user may change about themselves.
// A nil ImageFile leaves the current avatar untouched.
type ProfileUpdate struct {
	Username  string
	Email     string
	Phone     string
	Birthday  *time.Time
	Info      string
	ImageFile *string
}
