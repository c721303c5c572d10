package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aussiebroadwan/billboard/internal/blog/service"
	"github.com/aussiebroadwan/billboard/pkg/httpx"
	"github.com/aussiebroadwan/billboard/pkg/slogx"
)

// LoadSession resolves the session cookie into the current user. The cookie
// must name an existing account by id and carry that account's current email.
// Anything else continues anonymously with the cookie cleared. Signed-in
// requests have last_seen bumped before the handler runs.
func LoadSession(sessions *Sessions, users *service.UserService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			claims, present, err := sessions.Session(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				log.Debug("discarding invalid session cookie", slog.Any("error", err))
				sessions.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			u, err := users.GetUserByID(ctx, claims.UserID)
			if err != nil {
				if !errors.Is(err, service.ErrUserNotFound) {
					log.Error("failed to load session user", slog.Any("error", err))
				}
				sessions.Clear(w)
				next.ServeHTTP(w, r)
				return
			}
			if u.Email != claims.Subject {
				log.Debug("discarding session for a superseded email", slog.Int64("user_id", u.ID))
				sessions.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			if err := users.Touch(ctx, u.ID); err != nil {
				log.Warn("failed to update last seen", slog.Int64("user_id", u.ID), slog.Any("error", err))
			}

			ctx = withCurrentUser(ctx, u)
			ctx = httpx.WithUserID(ctx, strconv.FormatInt(u.ID, 10))
			ctx = slogx.With(ctx, slog.Int64("user_id", u.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin sends anonymous visitors to the login page, remembering where
// they were going.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// RedirectIfAuthenticated keeps signed-in users away from register and login.
func RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
