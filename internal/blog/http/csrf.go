package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/billboard/internal/blog/forms"
	"github.com/aussiebroadwan/billboard/pkg/billboardsdk"
	"github.com/aussiebroadwan/billboard/pkg/httpx"
	"github.com/aussiebroadwan/billboard/pkg/slogx"
)

// CSRF makes sure every visitor holds a signed csrf cookie and exposes its
// token to templates and to API clients through the X-CSRF-Token header.
// Handlers compare what the request sends against it with forms.Decode or
// forms.CheckCSRF.
func CSRF(sessions *Sessions) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := sessions.CSRFToken(r)
			if !ok {
				var err error
				token, err = sessions.IssueCSRF(w)
				if err != nil {
					slogx.FromContext(r.Context()).Error("failed to issue csrf token", slog.Any("error", err))
					billboardsdk.ErrServerError.WriteError(w)
					return
				}
			}

			w.Header().Set(billboardsdk.CSRFHeader, token)
			next.ServeHTTP(w, r.WithContext(forms.WithCSRFToken(r.Context(), token)))
		})
	}
}
