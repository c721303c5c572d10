package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/billboard/pkg/cryptox"
	"github.com/aussiebroadwan/billboard/pkg/jwtx"
)

const (
	SessionCookieName = "billboard_session"
	FlashCookieName   = "billboard_flash"
	CSRFCookieName    = "billboard_csrf"
)

// Flash categories understood by the layout template.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Sessions issues and reads the signed session and flash cookies.
type Sessions struct {
	Codec  *jwtx.HS256
	TTL    time.Duration
	Secure bool

	// Now is overridable in tests.
	Now func() time.Time
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.TTL
}

func (s *Sessions) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Issue signs a session for the account and sets it on the response. Without
// remember the cookie lives until the browser closes, the token itself still
// expires after TTL. The choice rides in the token so a re-issue keeps it.
func (s *Sessions) Issue(w http.ResponseWriter, userID int64, email string, remember bool) error {
	claims := jwtx.NewSessionClaims(userID, email, s.Codec.Issuer(), s.ttl(), s.now())
	claims.Remember = remember

	token, err := s.Codec.Sign(claims)
	if err != nil {
		return err
	}
	maxAge := 0
	if remember {
		maxAge = int(s.ttl().Seconds())
	}
	http.SetCookie(w, s.cookie(SessionCookieName, token, maxAge))
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(SessionCookieName, "", -1))
}

// Session returns the verified claims of the request's session cookie.
// present is true when a cookie was sent, even if it failed verification.
func (s *Sessions) Session(r *http.Request) (claims jwtx.Claims, present bool, err error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return jwtx.Claims{}, false, nil
	}

	claims, err = s.Codec.Verify(c.Value, jwtx.KindSession)
	if err != nil {
		return jwtx.Claims{}, true, err
	}
	return claims, true, nil
}

// Remembered reports whether the current session asked for a persistent
// cookie.
func (s *Sessions) Remembered(r *http.Request) bool {
	claims, _, err := s.Session(r)
	return err == nil && claims.Remember
}

// IssueCSRF generates a fresh form token and stores it, signed, in a browser
// session cookie.
func (s *Sessions) IssueCSRF(w http.ResponseWriter) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	signed, err := s.Codec.Sign(jwtx.NewCSRFClaims(token, s.Codec.Issuer(), s.ttl(), s.now()))
	if err != nil {
		return "", err
	}
	http.SetCookie(w, s.cookie(CSRFCookieName, signed, 0))
	return token, nil
}

// CSRFToken returns the form token held by the request's csrf cookie.
func (s *Sessions) CSRFToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(CSRFCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	claims, err := s.Codec.Verify(c.Value, jwtx.KindCSRF)
	if err != nil {
		return "", false
	}
	return claims.CSRF, true
}

// AddFlash queues messages for the next rendered page, keeping any already
// pending on the request.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, flashes ...jwtx.Flash) error {
	pending := append(s.peekFlashes(r), flashes...)

	token, err := s.Codec.Sign(jwtx.NewFlashClaims(pending, s.Codec.Issuer(), s.now()))
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(FlashCookieName, token, 600))
	return nil
}

// PopFlashes returns the pending messages and clears the cookie.
func (s *Sessions) PopFlashes(w http.ResponseWriter, r *http.Request) []jwtx.Flash {
	flashes := s.peekFlashes(r)
	if _, err := r.Cookie(FlashCookieName); err == nil {
		http.SetCookie(w, s.cookie(FlashCookieName, "", -1))
	}
	return flashes
}

func (s *Sessions) peekFlashes(r *http.Request) []jwtx.Flash {
	c, err := r.Cookie(FlashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	claims, err := s.Codec.Verify(c.Value, jwtx.KindFlash)
	if err != nil {
		return nil
	}
	return claims.Flashes
}

func flash(category, message string) jwtx.Flash {
	return jwtx.Flash{Category: category, Message: message}
}
