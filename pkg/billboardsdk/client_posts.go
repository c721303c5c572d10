package billboardsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// CreatePost publishes a post as the signed-in user.
func (c *Client) CreatePost(ctx context.Context, title, content string) error {
	resp, err := c.postForm(ctx, "/post/new", url.Values{
		"title":   {title},
		"content": {content},
	}, nil)
	if err != nil {
		return err
	}

	if isLoginRedirect(resp) {
		_ = resp.Body.Close()
		return ErrLoginRequired
	}
	_, err = expectRedirect(resp)
	return err
}

// GetPage fetches an HTML page and returns its status and body.
func (c *Client) GetPage(ctx context.Context, path string) (int, string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, string(body), nil
}
