package service

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("that email is taken, please choose a different one")
	ErrUsernameTaken      = errors.New("that username is taken, please choose a different one")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
)
