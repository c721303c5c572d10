package billboardsdk

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

// Every response names the form token bound to the caller's cookie in
// CSRFHeader. State-changing requests send it back in the same header or in
// the CSRFField form value.
const (
	CSRFHeader = "X-CSRF-Token"
	CSRFField  = "csrf_token"
)

// Client talks to one Billboard site and carries its session cookie.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu        sync.Mutex
	csrfToken string
}

// NewClient returns a client with its own cookie jar. Redirects are not
// followed.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil) // never fails without options

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}
