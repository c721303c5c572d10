package billboardsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/billboard/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeServerError       = "server_error"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrorCodeInvalidCSRFToken  = "invalid_csrf_token"
)

// APIError is a JSON error from one of the API endpoints. Handlers use the
// same type to write the response.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on the error code so sentinels work with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	// ErrInvalidStatus is returned by /status for anything but 0 or 1.
	ErrInvalidStatus = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "status must be 0 or 1",
	}

	// ErrCSRFRejected means the request did not carry the form token bound
	// to the caller's cookie.
	ErrCSRFRejected = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInvalidCSRFToken,
		Description: "missing or stale form token",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimitExceeded,
		Description: "too many requests",
	}
)

// ErrInvalidCredentials is returned by Login when the site rejects the
// email and password pair.
var ErrInvalidCredentials = errors.New("billboardsdk: invalid credentials")

// ErrLoginRequired means the request was redirected to the login page.
var ErrLoginRequired = errors.New("billboardsdk: login required")

// PageError is an HTML page the site answered with instead of the expected
// redirect, typically a form re-rendered with validation messages.
type PageError struct {
	StatusCode int
	Body       string
}

func (e *PageError) Error() string {
	return fmt.Sprintf("billboardsdk: unexpected page (status %d)", e.StatusCode)
}

// Contains reports whether the rejected page mentions s, handy for checking
// a field message.
func (e *PageError) Contains(s string) bool {
	return strings.Contains(e.Body, s)
}

// parseErrorResponse turns an unexpected response into a typed error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var er ErrorResponse
		if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
			return &APIError{
				StatusCode:  resp.StatusCode,
				Code:        er.Error,
				Description: er.ErrorDescription,
			}
		}
	}

	return &PageError{StatusCode: resp.StatusCode, Body: string(body)}
}
