package api

import (
	"errors"
	"net/http"
	"strings"

	"notaryportal/internal/backend"
	"notaryportal/internal/metrics"
	"notaryportal/internal/models"
	"notaryportal/internal/session"
)

// handleLogin verifies credentials with the backend and issues the session cookie.
// POST /api/login
func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("login")

	var creds models.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	info, err := s.account.Login(r.Context(), creds)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	sess := session.Context{
		LoggedIn: true,
		UserID:   info.UserID.String(),
		Premium:  info.IsPremium,
		Plan:     info.Plan,
	}
	token, err := s.sessions.Issue(sess)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, s.sessions.Cookie(token))
	writeJSON(w, http.StatusOK, sess)
}

// handleLogout ends the backend session and clears the cookie.
// POST /api/logout
func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("logout")

	sess := session.FromContext(r.Context())
	if sess.LoggedIn {
		if err := s.account.Logout(r.Context(), sess.UserID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", sess.UserID).Msg("backend logout failed")
		}
	}
	http.SetCookie(w, s.sessions.ClearCookie())
	writeJSON(w, http.StatusOK, session.Anonymous())
}

// GET /api/session
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("session")
	writeJSON(w, http.StatusOK, session.FromContext(r.Context()))
}
