package session

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Middleware resolves the session cookie and attaches the Context to the
// request. Invalid or expired cookies are cleared and the request proceeds
// anonymously.
func (m *Manager) Middleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("component", "session").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := Anonymous()
			if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
				parsed, err := m.Parse(cookie.Value)
				if err != nil {
					log.Debug().Err(err).Msg("dropping session cookie")
					http.SetCookie(w, m.ClearCookie())
				} else {
					sess = parsed
				}
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), sess)))
		})
	}
}
