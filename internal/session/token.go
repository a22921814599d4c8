package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	Premium bool   `json:"premium,omitempty"`
	Plan    string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session cookies.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func NewManager(secret, cookieName string, ttl time.Duration, secure bool) *Manager {
	if cookieName == "" {
		cookieName = "notary_session"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		now:        time.Now,
	}
}

func (m *Manager) CookieName() string { return m.cookieName }

// Issue signs sess into a token that expires after the manager's TTL.
func (m *Manager) Issue(sess Context) (string, error) {
	if sess.UserID == "" {
		return "", errors.New("issue session: empty user id")
	}
	now := m.now()
	c := claims{
		Premium: sess.Premium,
		Plan:    sess.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(m.secret)
}

// Parse verifies a token and returns the logged-in context it carries.
func (m *Manager) Parse(raw string) (Context, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Anonymous(), fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return Anonymous(), ErrInvalidToken
	}
	return Context{
		LoggedIn: true,
		UserID:   c.Subject,
		Premium:  c.Premium,
		Plan:     c.Plan,
	}, nil
}

// Cookie wraps a token for the response.
func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
