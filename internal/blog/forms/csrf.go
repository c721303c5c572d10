package forms

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/billboard/pkg/billboardsdk"
)

// ErrCSRF is returned when a state-changing request does not echo the form
// token bound to the caller's cookie.
var ErrCSRF = errors.New("forms: missing or stale csrf token")

type csrfKey struct{}

// WithCSRFToken records the token the current request must echo.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey{}, token)
}

// CSRFToken returns the token recorded by WithCSRFToken.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// CheckCSRF accepts the token from the X-CSRF-Token header or the csrf_token
// form value. A request with no expected token in its context always fails.
func CheckCSRF(r *http.Request) error {
	sent := r.Header.Get(billboardsdk.CSRFHeader)
	if sent == "" {
		sent = r.FormValue(billboardsdk.CSRFField)
	}
	return compareCSRF(r.Context(), sent)
}

func compareCSRF(ctx context.Context, sent string) error {
	want := CSRFToken(ctx)
	if want == "" || sent == "" {
		return ErrCSRF
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(sent)) != 1 {
		return ErrCSRF
	}
	return nil
}
