package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/fingerprint"
	"github.com/foliowise/advisor/internal/models"
	"github.com/foliowise/advisor/internal/services/cache"
	"github.com/foliowise/advisor/internal/services/flowguard"
)

// handleHealth returns service health status. Unauthenticated and
// unwrapped so probes stay simple.
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
		"version": common.GetVersion(),
	})
}

// handleVersion returns build information.
// GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleConfig returns the client-facing runtime configuration: attempt
// limits, supported countries, and feature flags.
// GET /api/config
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	cfg := s.app.Config
	WriteSuccess(w, http.StatusOK, models.ConfigResponse{
		MaxFreeAttempts:      cfg.RateLimit.MaxFreeAttempts,
		RateLimitWindowHours: cfg.RateLimit.WindowHours,
		SupportedCountries:   models.SupportedCountries,
		Features: models.FeatureFlags{
			MaintenanceMode:      cfg.Features.MaintenanceMode,
			NewUserSignupEnabled: cfg.Features.NewUserSignupEnabled,
		},
	})
}

// resolveFingerprint prefers an explicit fingerprint over derived signals.
// Returns "" when neither is usable.
func resolveFingerprint(fp string, signals *models.ClientSignals) string {
	if fp != "" {
		return fp
	}
	if signals != nil {
		return fingerprint.Generate(*signals)
	}
	return ""
}

// handlePortfolioGenerate runs the full generation pipeline: validate, rate
// limit, cache lookup, synthesize (agent first, local fallback), cache, and
// issue a one-shot result token.
// POST /api/portfolio/generate
func (s *Server) handlePortfolioGenerate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.Features.MaintenanceMode {
		WriteApiError(w, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Service is under maintenance", "")
		return
	}

	var req models.GeneratePortfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	fp := resolveFingerprint(req.Fingerprint, req.Signals)
	if fp == "" {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Fingerprint or client signals are required", "")
		return
	}

	assessment := &req.RiskAssessment
	if err := assessment.Validate(); err != nil {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid risk assessment", err.Error())
		return
	}

	ctx := r.Context()

	status, _ := s.app.RateLimitService.Check(ctx, fp)
	if !status.Allowed {
		s.logger.Info().Str("fingerprint", fp).Msg("Generation blocked by rate limit")
		WriteJSON(w, http.StatusTooManyRequests, models.ApiResponse{
			Success: false,
			Data:    status,
			Error:   models.NewApiError(models.ErrCodeRateLimitExceeded, "Free generation limit reached", ""),
		})
		return
	}

	// A cache hit replays the stored recommendation without spending an
	// attempt. Same inputs, same result.
	if rec, ok := s.app.CacheService.Get(ctx, fp, assessment); ok {
		token, err := s.app.FlowGuard.Issue(ctx, cache.EntryKey(fp, assessment))
		if err != nil {
			WriteApiError(w, http.StatusInternalServerError, models.ErrCodeBackend, "Failed to issue result token", "")
			return
		}
		WriteSuccess(w, http.StatusOK, models.GeneratePortfolioResponse{
			Recommendation: rec,
			ResultToken:    token,
			Cached:         true,
		})
		return
	}

	if _, err := s.app.RateLimitService.Increment(ctx, fp); err != nil {
		s.logger.Warn().Err(err).Str("fingerprint", fp).Msg("Failed to record generation attempt")
	}

	rec, err := s.generateRecommendation(r, assessment)
	if err != nil {
		WriteApiError(w, http.StatusInternalServerError, models.ErrCodeSynthesis, "Portfolio generation failed", "")
		return
	}

	if err := s.app.CacheService.Put(ctx, fp, assessment, rec); err != nil {
		s.logger.Warn().Err(err).Str("fingerprint", fp).Msg("Failed to cache recommendation")
	}

	token, err := s.app.FlowGuard.Issue(ctx, cache.EntryKey(fp, assessment))
	if err != nil {
		WriteApiError(w, http.StatusInternalServerError, models.ErrCodeBackend, "Failed to issue result token", "")
		return
	}

	WriteSuccess(w, http.StatusOK, models.GeneratePortfolioResponse{
		Recommendation: rec,
		ResultToken:    token,
		Cached:         false,
	})
}

// generateRecommendation prefers the remote agent and falls back to the
// local synthesizer when the agent is unconfigured or unreachable.
func (s *Server) generateRecommendation(r *http.Request, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error) {
	ctx := r.Context()

	if s.app.AgentClient != nil {
		rec, err := s.app.AgentClient.GeneratePortfolio(ctx, assessment)
		if err == nil {
			return rec, nil
		}
		s.logger.Warn().Err(err).Msg("Agent generation failed - falling back to local synthesizer")
	}

	return s.app.SynthesizerService.Synthesize(ctx, assessment)
}

// handlePortfolioResult redeems a one-shot result token and returns the
// recommendation it was bound to. Replaying a token is a 404; the client is
// expected to start a fresh assessment.
// GET /api/portfolio/result?token=...
func (s *Server) handlePortfolioResult(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Missing required parameter: token", "")
		return
	}

	ctx := r.Context()

	cacheKey, err := s.app.FlowGuard.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, flowguard.ErrNoFlow) {
			WriteApiError(w, http.StatusNotFound, models.ErrCodeNotFound, "No results available - complete an assessment first", "")
			return
		}
		WriteApiError(w, http.StatusInternalServerError, models.ErrCodeBackend, "Failed to validate result token", "")
		return
	}

	entry, err := s.app.Storage.PortfolioCacheStore().GetCachedPortfolio(ctx, cacheKey)
	if err != nil {
		WriteApiError(w, http.StatusNotFound, models.ErrCodeNotFound, "Results are no longer available", "")
		return
	}

	WriteSuccess(w, http.StatusOK, models.GeneratePortfolioResponse{
		Recommendation: entry.Recommendation,
		Cached:         true,
	})
}

// handlePortfolioCacheClear drops cached results so the next submission
// regenerates. With an assessment it clears one entry; without, every entry
// for the fingerprint.
// DELETE /api/portfolio/cache
func (s *Server) handlePortfolioCacheClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	var req models.ClearCacheRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Fingerprint == "" {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Fingerprint is required", "")
		return
	}

	if err := s.app.CacheService.Clear(r.Context(), req.Fingerprint, req.Assessment); err != nil {
		WriteApiError(w, http.StatusInternalServerError, models.ErrCodeBackend, "Failed to clear cache", "")
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]bool{"cleared": true})
}
