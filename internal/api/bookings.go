package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"notaryportal/internal/booking"
	"notaryportal/internal/metrics"
	"notaryportal/internal/models"
	"notaryportal/shared/export"
)

// BookingResponse pairs a job with its display status.
type BookingResponse struct {
	models.Job
	StatusText string `json:"status_text"`
}

func bookingResponses(jobs []models.Job) []BookingResponse {
	out := make([]BookingResponse, len(jobs))
	for i, j := range jobs {
		out[i] = BookingResponse{Job: j, StatusText: booking.StatusText(j.Status)}
	}
	return out
}

// GET /api/bookings?page=1&per_page=20
func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_list")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	page, perPage, err := pageParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs, err := s.booking.Bookings(r.Context(), sess)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items, info := paginate(bookingResponses(jobs), page, perPage)
	writeJSON(w, http.StatusOK, map[string]any{"bookings": items, "pagination": info})
}

// handleCreateBooking submits a booking request. An Idempotency-Key header
// is forwarded so a client retry cannot create a second job.
// POST /api/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_create")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	var form models.JobRequest
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.booking.Submit(r.Context(), sess, form, r.Header.Get("Idempotency-Key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	msg := res.Message
	if msg == "" {
		msg = "Booking request submitted"
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      res.Reference(),
		"status":  string(models.JobPending),
		"message": msg,
	})
}

// GET /api/bookings/{id}
func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_get")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	job, err := s.booking.Booking(r.Context(), sess, mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BookingResponse{Job: *job, StatusText: booking.StatusText(job.Status)})
}

// POST /api/bookings/{id}/feedback
func (s *HTTPServer) handleFeedback(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_feedback")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	var fb models.Feedback
	if err := decodeJSON(r, &fb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.booking.SubmitFeedback(r.Context(), sess, mux.Vars(r)["id"], fb); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/history
func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("history")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	page, perPage, err := pageParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs, err := s.booking.History(r.Context(), sess)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items, info := paginate(bookingResponses(jobs), page, perPage)
	writeJSON(w, http.StatusOK, map[string]any{"history": items, "pagination": info})
}

// handleHistoryExport downloads the client's history as an xlsx workbook.
// GET /api/history/export
func (s *HTTPServer) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("history_export")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	jobs, err := s.booking.History(r.Context(), sess)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteHistory(&buf, jobs); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	name := export.HistoryFilename(sess.UserID, s.booking.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GET /api/calendar/events
func (s *HTTPServer) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar_events")
	sess, ok := requireLogin(w, r)
	if !ok {
		return
	}

	evs, err := s.account.CalendarEvents(r.Context(), sess.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evs})
}
