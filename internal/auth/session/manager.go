// Package session reads and writes the browser cookie that carries a
// customer or staff session token.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/greenpack/internal/config"
)

const (
	DefaultCookieName = "_sid"
	// DefaultTTL is how long a signed-in customer stays signed in.
	DefaultTTL = 7 * 24 * time.Hour
)

type Manager struct {
	cookieName string
	secure     bool
	ttl        time.Duration
	sameSite   http.SameSite
	now        func() time.Time
}

func NewManager(cfg config.Config) *Manager {
	m := &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.AuthCookieSecure,
		ttl:        DefaultTTL,
		sameSite:   parseSameSite(cfg.Session.SameSite),
		now:        time.Now,
	}
	if name := strings.TrimSpace(cfg.Session.CookieName); name != "" {
		m.cookieName = name
	}
	if cfg.Session.TTL > 0 {
		m.ttl = cfg.Session.TTL
	}
	// Browsers drop SameSite=None cookies that are not Secure.
	if m.sameSite == http.SameSiteNoneMode && !m.secure {
		m.sameSite = http.SameSiteLaxMode
	}
	return m
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// TTL is the lifetime given to new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Set writes the session cookie. A zero expiresAt uses the manager TTL, and
// the cookie never outlives the TTL.
func (m *Manager) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := m.ttl
	if !expiresAt.IsZero() {
		if remaining := expiresAt.Sub(m.now()); remaining < maxAge {
			maxAge = remaining
		}
	}
	seconds := int(maxAge / time.Second)
	if seconds <= 0 {
		m.Clear(c)
		return
	}
	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cookieName, value, seconds, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
