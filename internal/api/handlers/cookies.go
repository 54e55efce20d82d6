package handlers

import (
	"net/http"
	"time"

	"github.com/rohits-web03/inkwell/internal/session"
)

const (
	stateCookieName = "oauth_state"
	stateCookiePath = "/api/v1/auth/google"
	stateTTL        = 10 * time.Minute
)

// cookies builds the session cookie with production-aware attributes.
type cookies struct {
	production bool
	ttl        time.Duration
}

func (c cookies) sameSite() http.SameSite {
	if c.production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (c cookies) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		Secure:   c.production,
		HttpOnly: true,
		SameSite: c.sameSite(),
	}
}

func (c cookies) clearSession() *http.Cookie {
	cookie := c.session("")
	cookie.MaxAge = -1
	return cookie
}

// state travels only on the top-level redirect back from Google.
func (c cookies) state(value string) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     stateCookiePath,
		MaxAge:   int(stateTTL.Seconds()),
		Secure:   c.production,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c cookies) clearState() *http.Cookie {
	cookie := c.state("")
	cookie.MaxAge = -1
	return cookie
}
