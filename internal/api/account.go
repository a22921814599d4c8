package api

import (
	"net/http"
	"net/mail"
	"strings"

	"notaryportal/internal/events"
	"notaryportal/internal/metrics"
	"notaryportal/internal/models"
)

// GET /api/account/profile
func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profile_get")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	p, err := s.account.Profile(r.Context(), sess.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PATCH /api/account/profile
func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profile_update")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	var p models.Profile
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)
	if p.Name == "" && p.Email == "" && p.Address == "" {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			writeError(w, http.StatusBadRequest, "invalid email")
			return
		}
	}

	if err := s.account.UpdateProfile(r.Context(), sess.UserID, p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.emit(events.ProfileUpdated, events.ProfilePayload{ClientID: sess.UserID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleDeleteProfile removes the account and ends the session.
// DELETE /api/account/profile
func (s *HTTPServer) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profile_delete")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	if err := s.account.DeleteProfile(r.Context(), sess.UserID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.emit(events.ProfileUpdated, events.ProfilePayload{ClientID: sess.UserID, Deleted: true})
	http.SetCookie(w, s.sessions.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /api/account/twofa
func (s *HTTPServer) handleTwoFAStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("twofa_status")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	st, err := s.account.TwoFAStatus(r.Context(), sess.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// POST /api/account/twofa/request
func (s *HTTPServer) handleTwoFARequest(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("twofa_request")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	if err := s.account.RequestTwoFA(r.Context(), sess.UserID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code sent"})
}

// POST /api/account/twofa/confirm
func (s *HTTPServer) handleTwoFAConfirm(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("twofa_confirm")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	var body models.TwoFAConfirm
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	code := strings.TrimSpace(body.Code)
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := s.account.ConfirmTwoFA(r.Context(), sess.UserID, code); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TwoFAStatus{Verified: true})
}

// handleGetBilling returns billing details with the card masked.
// GET /api/account/billing
func (s *HTTPServer) handleGetBilling(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("billing_get")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	rec, err := s.account.Billing(r.Context(), sess.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Masked())
}

// PUT /api/account/billing
func (s *HTTPServer) handleUpdateBilling(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("billing_update")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	var rec models.BillingRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.account.UpdateBilling(r.Context(), sess.UserID, rec); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Masked())
}

// DELETE /api/account/billing
func (s *HTTPServer) handleDeleteBilling(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("billing_delete")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	if err := s.account.DeleteBilling(r.Context(), sess.UserID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleContact forwards a contact form message. No login required.
// POST /api/contact
func (s *HTTPServer) handleContact(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("contact")

	var msg models.ContactMessage
	if err := decodeJSON(r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		writeError(w, http.StatusBadRequest, "name, email and message are required")
		return
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	if err := s.account.Contact(r.Context(), msg); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *HTTPServer) emit(eventType string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("publish event")
	}
}
