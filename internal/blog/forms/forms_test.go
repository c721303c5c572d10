package forms_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/billboard/internal/blog/forms"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// postForm builds a form post carrying a valid csrf token.
func postForm(values url.Values) *http.Request {
	if !values.Has("csrf_token") {
		values.Set("csrf_token", testToken)
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r.WithContext(forms.WithCSRFToken(r.Context(), testToken))
}

func TestRegistration(t *testing.T) {
	valid := forms.Registration{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "secret",
		ConfirmPassword: "secret",
	}

	t.Run("valid", func(t *testing.T) {
		f := valid
		require.Nil(t, f.Validate())
	})

	t.Run("decodes from request", func(t *testing.T) {
		var f forms.Registration
		require.NoError(t, forms.Decode(postForm(url.Values{
			"username":         {" alice "},
			"email":            {"alice@example.com"},
			"password":         {"secret"},
			"confirm_password": {"secret"},
		}), &f))
		require.Nil(t, f.Validate())
		require.Equal(t, "alice", f.Username)
	})

	cases := map[string]struct {
		mutate func(*forms.Registration)
		field  string
	}{
		"short username":    {func(f *forms.Registration) { f.Username = "a" }, "username"},
		"long username":     {func(f *forms.Registration) { f.Username = strings.Repeat("a", 21) }, "username"},
		"bad email":         {func(f *forms.Registration) { f.Email = "not-an-email" }, "email"},
		"short password":    {func(f *forms.Registration) { f.Password, f.ConfirmPassword = "abc", "abc" }, "password"},
		"mismatch":          {func(f *forms.Registration) { f.ConfirmPassword = "other1" }, "confirm_password"},
		"missing email":     {func(f *forms.Registration) { f.Email = "" }, "email"},
		"whitespace handle": {func(f *forms.Registration) { f.Username = "   " }, "username"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := valid
			tc.mutate(&f)
			errs := f.Validate()
			require.NotEmpty(t, errs.Get(tc.field), "errors: %v", errs)
		})
	}
}

func TestLogin(t *testing.T) {
	var f forms.Login
	require.NoError(t, forms.Decode(postForm(url.Values{
		"email":    {"alice@example.com"},
		"password": {"pw"},
		"remember": {"true"},
	}), &f))
	require.Nil(t, f.Validate())
	require.True(t, f.Remember)

	empty := forms.Login{}
	errs := empty.Validate()
	require.Equal(t, "This field is required.", errs.Get("email"))
	require.Equal(t, "This field is required.", errs.Get("password"))
}

func TestPost(t *testing.T) {
	f := forms.Post{Title: "Hello", Content: "world"}
	require.Nil(t, f.Validate())

	blank := forms.Post{Title: "Hello", Content: " \n\t "}
	require.NotEmpty(t, blank.Validate().Get("content"))

	long := forms.Post{Title: strings.Repeat("x", 101), Content: "c"}
	require.NotEmpty(t, long.Validate().Get("title"))
}

func TestProfile(t *testing.T) {
	base := forms.Profile{Username: "alice", Email: "alice@example.com"}

	t.Run("optional fields may be empty", func(t *testing.T) {
		f := base
		require.Nil(t, f.Validate())
		require.Nil(t, f.BirthdayDate())
	})

	t.Run("birthday must be a date", func(t *testing.T) {
		f := base
		f.Birthday = "31/12/1999"
		require.NotEmpty(t, f.Validate().Get("birthday"))

		f.Birthday = "1999-12-31"
		require.Nil(t, f.Validate())
		require.Equal(t, 1999, f.BirthdayDate().Year())
	})

	t.Run("info is capped", func(t *testing.T) {
		f := base
		f.Info = strings.Repeat("i", 201)
		require.NotEmpty(t, f.Validate().Get("info"))
	})

	t.Run("picture extension and size", func(t *testing.T) {
		f := base
		f.Picture = &multipart.FileHeader{Filename: "evil.exe", Size: 10}
		require.Contains(t, f.Validate().Get("picture"), "approved extension")

		f.Picture = &multipart.FileHeader{Filename: "me.PNG", Size: 10}
		require.Nil(t, f.Validate())

		f.MaxPictureBytes = 5
		require.NotEmpty(t, f.Validate().Get("picture"))
	})

	t.Run("decodes multipart", func(t *testing.T) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("username", "alice"))
		require.NoError(t, w.WriteField("email", "alice@example.com"))
		require.NoError(t, w.WriteField("info", "about me"))
		require.NoError(t, w.WriteField("csrf_token", testToken))
		require.NoError(t, w.Close())

		r := httptest.NewRequest(http.MethodPost, "/profile", &body)
		r.Header.Set("Content-Type", w.FormDataContentType())
		r = r.WithContext(forms.WithCSRFToken(r.Context(), testToken))

		var f forms.Profile
		require.NoError(t, forms.Decode(r, &f))
		require.Equal(t, "about me", f.Info)
		require.Nil(t, f.Validate())
	})
}

func TestAllowedImage(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "b.png", "c.gif"} {
		require.True(t, forms.AllowedImage(name), name)
	}
	for _, name := range []string{"a", "a.bmp", "a.jpg.exe"} {
		require.False(t, forms.AllowedImage(name), name)
	}
}
