package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"notaryportal/internal/backend"
	"notaryportal/internal/booking"
	"notaryportal/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON rejects unknown fields and anything but a single JSON object.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// requireLogin writes 401 and returns false for anonymous callers.
func requireLogin(w http.ResponseWriter, r *http.Request) (session.Context, bool) {
	sess := session.FromContext(r.Context())
	if err := session.RequireLogin(sess); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return sess, false
	}
	return sess, true
}

// writeServiceError maps domain and backend errors onto HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		httpErr *backend.HTTPError
		urlErr  *url.Error
	)
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case session.IsAccessDenied(err):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, backend.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, backend.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, backend.ErrConflict):
		msg := "conflict"
		if errors.As(err, &httpErr) && httpErr.Message() != "" {
			msg = httpErr.Message()
		}
		writeError(w, http.StatusConflict, msg)
	case errors.As(err, &httpErr), errors.As(err, &urlErr), errors.Is(err, backend.ErrNotConfigured):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", requestIDFrom(r.Context())).Msg("backend failure")
		writeError(w, http.StatusBadGateway, "notary backend unavailable")
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", requestIDFrom(r.Context())).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
