package forms

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

// BirthdayLayout is the only accepted birthday format.
const BirthdayLayout = "2006-01-02"

// AllowedImageExtensions are the picture types the profile form accepts.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

type Registration struct {
	Username        string `form:"username" validate:"required,min=2,max=20"`
	Email           string `form:"email" validate:"required,email,max=120"`
	Password        string `form:"password" validate:"required,min=6,max=128"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

func (f *Registration) Validate() Errors {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

type Login struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
}

func (f *Login) Validate() Errors {
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

type Profile struct {
	Username string `form:"username" validate:"required,min=2,max=20"`
	Email    string `form:"email" validate:"required,email,max=120"`
	Phone    string `form:"phone" validate:"max=20"`
	Birthday string `form:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Info     string `form:"info" validate:"max=200"`

	// Picture is filled from the multipart body by the handler.
	Picture *multipart.FileHeader `form:"-" validate:"-"`
	// MaxPictureBytes caps Picture.Size; zero disables the check.
	MaxPictureBytes int64 `form:"-" validate:"-"`
}

func (f *Profile) Validate() Errors {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Birthday = strings.TrimSpace(f.Birthday)

	extra := Errors{}
	if f.Picture != nil {
		if !AllowedImage(f.Picture.Filename) {
			extra.Add("picture", "File does not have an approved extension: jpg, jpeg, png, gif")
		} else if f.MaxPictureBytes > 0 && f.Picture.Size > f.MaxPictureBytes {
			extra.Add("picture", "File is too large.")
		}
	}
	return merge(check(f), extra)
}

// BirthdayDate returns the parsed birthday, nil when the field is empty.
// Call it only after Validate succeeded.
func (f *Profile) BirthdayDate() *time.Time {
	if f.Birthday == "" {
		return nil
	}
	t, err := time.Parse(BirthdayLayout, f.Birthday)
	if err != nil {
		return nil
	}
	return &t
}

type Post struct {
	Title   string `form:"title" validate:"required,max=100"`
	Content string `form:"content" validate:"notblank"`
}

func (f *Post) Validate() Errors {
	f.Title = strings.TrimSpace(f.Title)
	return check(f)
}

// AllowedImage reports whether name carries one of AllowedImageExtensions.
func AllowedImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
