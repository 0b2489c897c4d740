// Package ratelimit enforces the per-fingerprint free-attempt gate.
//
// The remote store is preferred for reads with the local store as fallback;
// writes go to the local store always and to the remote store best-effort.
// Storage failures never block a user: a failed check degrades to allowed.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/models"
	"github.com/foliowise/advisor/internal/storage/badger"
	"github.com/foliowise/advisor/internal/storage/surrealdb"
)

// Compile-time interface check
var _ interfaces.RateLimitService = (*Service)(nil)

// Service implements RateLimitService.
type Service struct {
	local       interfaces.RateLimitStore
	remote      interfaces.RateLimitStore // nil when not configured
	maxAttempts int
	window      time.Duration
	logger      *common.Logger
}

// NewService creates a new rate limit service. remote may be nil.
func NewService(local, remote interfaces.RateLimitStore, cfg common.RateLimitConfig, logger *common.Logger) *Service {
	return &Service{
		local:       local,
		remote:      remote,
		maxAttempts: cfg.MaxFreeAttempts,
		window:      cfg.Window(),
		logger:      logger,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, badger.ErrNotFound) || errors.Is(err, surrealdb.ErrNotFound)
}

// lookup reads the record, remote first. A missing record initializes a
// fresh one; a failing read reports degraded=true so callers can fail open.
func (s *Service) lookup(ctx context.Context, fingerprint string) (record *models.RateLimitRecord, degraded bool) {
	if s.remote != nil {
		remote, err := s.remote.GetRateLimit(ctx, fingerprint)
		if err == nil {
			return remote, false
		}
		if !isNotFound(err) {
			s.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Remote rate-limit lookup failed - falling back to local")
		}
	}

	local, err := s.local.GetRateLimit(ctx, fingerprint)
	if err == nil {
		return local, false
	}
	if isNotFound(err) {
		return s.freshRecord(fingerprint), false
	}

	s.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Local rate-limit lookup failed - failing open")
	return s.freshRecord(fingerprint), true
}

func (s *Service) freshRecord(fingerprint string) *models.RateLimitRecord {
	now := time.Now().UTC()
	return &models.RateLimitRecord{
		Fingerprint: fingerprint,
		Attempts:    0,
		MaxAttempts: s.maxAttempts,
		ResetAt:     now.Add(s.window),
		CreatedAt:   now,
	}
}

// Check reports whether the fingerprint may generate another portfolio.
// Idempotent: repeated checks without an intervening increment return the
// same counts. Never returns an error to the caller.
func (s *Service) Check(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error) {
	record, degraded := s.lookup(ctx, fingerprint)
	if degraded {
		return &models.RateLimitStatus{
			Allowed:           true,
			AttemptsUsed:      0,
			AttemptsRemaining: s.maxAttempts,
			ResetAt:           time.Now().UTC().Add(s.window),
		}, nil
	}

	now := time.Now().UTC()
	if record.Expired(now) {
		record.Attempts = 0
		record.ResetAt = now.Add(s.window)
	}
	if record.MaxAttempts <= 0 {
		record.MaxAttempts = s.maxAttempts
	}

	return &models.RateLimitStatus{
		Allowed:           record.Attempts < record.MaxAttempts,
		AttemptsUsed:      record.Attempts,
		AttemptsRemaining: record.Remaining(),
		ResetAt:           record.ResetAt,
	}, nil
}

// Increment records an attempt and persists it. The reset window rolls from
// this attempt, not from the previous reset. Local persistence failures are
// logged and swallowed; remote writes are best-effort.
func (s *Service) Increment(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error) {
	record, _ := s.lookup(ctx, fingerprint)

	now := time.Now().UTC()
	if record.Expired(now) {
		record.Attempts = 0
	}
	if record.MaxAttempts <= 0 {
		record.MaxAttempts = s.maxAttempts
	}

	record.Attempts++
	record.LastAttempt = now
	record.ResetAt = now.Add(s.window)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := s.local.SaveRateLimit(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Failed to persist rate-limit record locally")
	}
	if s.remote != nil {
		if err := s.remote.SaveRateLimit(ctx, record); err != nil {
			s.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Failed to persist rate-limit record remotely")
		}
	}

	s.logger.Info().
		Str("fingerprint", fingerprint).
		Int("attempts", record.Attempts).
		Int("max", record.MaxAttempts).
		Msg("Rate-limit attempt recorded")

	return &models.RateLimitStatus{
		Allowed:           record.Attempts < record.MaxAttempts,
		AttemptsUsed:      record.Attempts,
		AttemptsRemaining: record.Remaining(),
		ResetAt:           record.ResetAt,
	}, nil
}
