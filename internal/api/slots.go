package api

import (
	"net/http"
	"strings"

	"notaryportal/internal/availability"
	"notaryportal/internal/metrics"
)

// SlotsResponse is the body of GET /api/slots.
type SlotsResponse struct {
	Date      string                       `json:"date"`
	Source    string                       `json:"source"`
	Slots     []availability.AvailableSlot `json:"slots"`
	Times     []string                     `json:"times"`
	Warnings  int                          `json:"warnings"`
	RequestID string                       `json:"request_id"`
}

// handleSlots returns bookable slots for a date.
// GET /api/slots?date=YYYY-MM-DD&sort=time
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required; expected YYYY-MM-DD")
		return
	}
	sortBy := q.Get("sort")
	if sortBy != "" && sortBy != "time" {
		writeError(w, http.StatusBadRequest, "invalid sort; expected time")
		return
	}

	res, err := s.booking.AvailableSlots(r.Context(), date, s.booking.Now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if sortBy == "time" {
		availability.SortByStart(res.Slots)
	}

	writeJSON(w, http.StatusOK, SlotsResponse{
		Date:      res.Date,
		Source:    res.Source,
		Slots:     res.Slots,
		Times:     availability.Times(res.Slots),
		Warnings:  len(res.Warnings),
		RequestID: requestIDFrom(r.Context()),
	})
}
