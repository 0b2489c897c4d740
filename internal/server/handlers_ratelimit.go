package server

import (
	"net/http"

	"github.com/foliowise/advisor/internal/models"
)

// handleRateLimitCheck reports remaining free attempts without consuming one.
// POST /api/rate-limit/check
func (s *Server) handleRateLimitCheck(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RateLimitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	fp := resolveFingerprint(req.Fingerprint, req.Signals)
	if fp == "" {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Fingerprint or client signals are required", "")
		return
	}

	status, _ := s.app.RateLimitService.Check(r.Context(), fp)
	WriteSuccess(w, http.StatusOK, status)
}

// handleRateLimitIncrement records one attempt and returns the updated
// status. Exposed for clients that track attempts ahead of generation.
// POST /api/rate-limit/increment
func (s *Server) handleRateLimitIncrement(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RateLimitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	fp := resolveFingerprint(req.Fingerprint, req.Signals)
	if fp == "" {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Fingerprint or client signals are required", "")
		return
	}

	status, err := s.app.RateLimitService.Increment(r.Context(), fp)
	if err != nil {
		WriteApiError(w, http.StatusInternalServerError, models.ErrCodeBackend, "Failed to record attempt", "")
		return
	}
	WriteSuccess(w, http.StatusOK, status)
}
