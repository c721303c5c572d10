package billboardsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Register creates an account. The site does not sign the new user in.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	resp, err := c.postForm(ctx, "/register", url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	}, nil)
	if err != nil {
		return err
	}

	_, err = expectRedirect(resp)
	return err
}

type LoginOptions struct {
	// Remember asks for a persistent session cookie.
	Remember bool
	// Next is the local path to land on after login.
	Next string
}

// Login signs in and returns where the site redirected to.
func (c *Client) Login(ctx context.Context, email, password string, opts LoginOptions) (string, error) {
	form := url.Values{
		"email":    {email},
		"password": {password},
	}
	if opts.Remember {
		form.Set("remember", "true")
	}

	path := "/login"
	if opts.Next != "" {
		path += "?next=" + url.QueryEscape(opts.Next)
	}

	resp, err := c.postForm(ctx, path, form, nil)
	if err != nil {
		return "", err
	}

	location, err := expectRedirect(resp)
	var page *PageError
	if errors.As(err, &page) && page.StatusCode == http.StatusUnauthorized {
		return "", ErrInvalidCredentials
	}
	return location, err
}

// Logout ends the session. It succeeds even when nobody was signed in.
func (c *Client) Logout(ctx context.Context) error {
	h, err := c.csrfHeaders(ctx, nil)
	if err != nil {
		return err
	}
	resp, err := c.doRequest(ctx, http.MethodGet, "/logout", nil, h)
	if err != nil {
		return err
	}

	_, err = expectRedirect(resp)
	return err
}

// SetStatus flips the signed-in user's online flag and returns the flag the
// server reports back.
func (c *Client) SetStatus(ctx context.Context, active bool) (bool, error) {
	value := "0"
	if active {
		value = "1"
	}

	resp, err := c.postForm(ctx, "/status", url.Values{"status": {value}},
		map[string]string{"Accept": "application/json"})
	if err != nil {
		return false, err
	}

	var status bool
	if err := decodeJSON(resp, &status, http.StatusOK); err != nil {
		return false, err
	}
	return status, nil
}
