package api

import (
	"net/http"

	"notaryportal/internal/metrics"
	"notaryportal/internal/pricing"
	"notaryportal/internal/session"
)

// handleServices returns the price list as the caller would be charged.
// GET /api/services
func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("services")
	writeJSON(w, http.StatusOK, pricing.Catalog(session.FromContext(r.Context())))
}

// POST /api/quote
func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("quote")

	var req pricing.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Service == "" {
		writeError(w, http.StatusBadRequest, "service is required")
		return
	}

	q, err := pricing.Quote(session.FromContext(r.Context()), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, q)
}
