package billboardsdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/billboard/pkg/httpx"
)

const fakeToken = "fake-token"

// fakeSite mimics the handful of routes the client knows about.
func fakeSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /about", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>About</h1>"))
	})
	mux.HandleFunc("GET /logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "billboard_session", Value: "", Path: "/", MaxAge: -1})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "secret-pw" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("<p>Login Unsuccessful</p>"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "billboard_session", Value: "ok", Path: "/"})
		target := r.URL.Query().Get("next")
		if target == "" {
			target = "/"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") == "taken" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("That username is taken."))
			return
		}
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
	})
	mux.HandleFunc("POST /status", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("billboard_session"); err != nil {
			http.Redirect(w, r, "/login?next=%2Fstatus", http.StatusSeeOther)
			return
		}
		switch r.FormValue("status") {
		case "1":
			httpx.WriteJSON(w, http.StatusOK, true)
		case "0":
			httpx.WriteJSON(w, http.StatusOK, false)
		default:
			ErrInvalidStatus.WriteError(w)
		}
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Uptime: "1s", Version: "test"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: ErrorCodeRateLimitExceeded})
	})

	srv := httptest.NewServer(requireToken(mux))
	t.Cleanup(srv.Close)
	return srv
}

// requireToken advertises fakeToken on every response and turns away POSTs
// and logouts that do not echo it.
func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(CSRFHeader, fakeToken)
		if r.Method == http.MethodPost || r.URL.Path == "/logout" {
			if r.Header.Get(CSRFHeader) != fakeToken {
				ErrCSRFRejected.WriteError(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func TestClientSessionFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := NewClient(fakeSite(t).URL + "/")

	_, err := client.SetStatus(ctx, true)
	require.ErrorIs(t, err, ErrLoginRequired)

	_, err = client.Login(ctx, "alice@example.com", "wrong", LoginOptions{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	location, err := client.Login(ctx, "alice@example.com", "secret-pw", LoginOptions{Next: "/post/new"})
	require.NoError(t, err)
	require.Equal(t, "/post/new", location)

	status, err := client.SetStatus(ctx, false)
	require.NoError(t, err)
	require.False(t, status)

	status, err = client.SetStatus(ctx, true)
	require.NoError(t, err)
	require.True(t, status)
}

func TestClientSendsFormToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := NewClient(fakeSite(t).URL)

	// The first form post fetches a token on its own.
	_, err := client.Login(ctx, "alice@example.com", "secret-pw", LoginOptions{})
	require.NoError(t, err)
	require.NoError(t, client.Logout(ctx))

	client.csrfToken = "stale"
	_, err = client.Login(ctx, "alice@example.com", "secret-pw", LoginOptions{})
	require.ErrorIs(t, err, ErrCSRFRejected)

	// The rejection carried a fresh token, so the retry goes through.
	_, err = client.Login(ctx, "alice@example.com", "secret-pw", LoginOptions{})
	require.NoError(t, err)
}

func TestClientRegisterErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := NewClient(fakeSite(t).URL)

	require.NoError(t, client.Register(ctx, "alice", "alice@example.com", "secret-pw"))

	err := client.Register(ctx, "taken", "bob@example.com", "secret-pw")
	var page *PageError
	require.ErrorAs(t, err, &page)
	require.Equal(t, http.StatusConflict, page.StatusCode)
	require.True(t, page.Contains("username is taken"))
}

func TestClientHealth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := NewClient(fakeSite(t).URL)

	health, err := client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)

	_, err = client.GetReadiness(ctx)
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestAPIErrorMatching(t *testing.T) {
	t.Parallel()

	err := &APIError{StatusCode: http.StatusBadRequest, Code: ErrorCodeInvalidRequest, Description: "other"}
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.NotErrorIs(t, err, ErrServerError)
	require.Equal(t, "invalid_request: other", err.Error())

	rec := httptest.NewRecorder()
	ErrInvalidStatus.WriteError(rec)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"invalid_request","error_description":"status must be 0 or 1"}`, rec.Body.String())
}
