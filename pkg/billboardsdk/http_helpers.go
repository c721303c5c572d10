package billboardsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if token := resp.Header.Get(CSRFHeader); token != "" {
		c.mu.Lock()
		c.csrfToken = token
		c.mu.Unlock()
	}

	return resp, nil
}

// csrfHeaders returns headers plus the current form token, fetching one
// first when the client has not seen any response yet.
func (c *Client) csrfHeaders(ctx context.Context, headers map[string]string) (map[string]string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()

	if token == "" {
		resp, err := c.doRequest(ctx, http.MethodGet, "/about", nil, nil)
		if err != nil {
			return nil, err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		c.mu.Lock()
		token = c.csrfToken
		c.mu.Unlock()
	}

	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	if token != "" {
		h[CSRFHeader] = token
	}
	return h, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, headers map[string]string) (*http.Response, error) {
	h, err := c.csrfHeaders(ctx, headers)
	if err != nil {
		return nil, err
	}
	h["Content-Type"] = "application/x-www-form-urlencoded"
	return c.doRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), h)
}

// decodeJSON decodes a JSON response into target, or returns a typed error
// when the status is not expectedStatus.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		if isLoginRedirect(resp) {
			return ErrLoginRequired
		}
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// expectRedirect returns the Location of a 303 response or a typed error.
func expectRedirect(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusSeeOther {
		return "", parseErrorResponse(resp, bodyBytes)
	}
	return resp.Header.Get("Location"), nil
}

func isLoginRedirect(resp *http.Response) bool {
	if resp.StatusCode != http.StatusSeeOther {
		return false
	}
	return strings.HasPrefix(resp.Header.Get("Location"), "/login")
}
