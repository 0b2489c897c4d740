// Package cache stores the last generated recommendation per assessment
// with a TTL. Read failures degrade to a miss, never an error.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/models"
)

// Compile-time interface check
var _ interfaces.PortfolioCacheService = (*Service)(nil)

// Service implements PortfolioCacheService.
type Service struct {
	store  interfaces.PortfolioCacheStore
	ttl    time.Duration
	logger *common.Logger
}

// NewService creates a new portfolio cache service.
func NewService(store interfaces.PortfolioCacheStore, ttl time.Duration, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// EntryKey scopes cache entries per fingerprint so one client's session
// never serves another's recommendation. Result tokens are bound to this key.
func EntryKey(fingerprint string, assessment *models.RiskAssessment) string {
	return fingerprint + "#" + assessment.CacheKey()
}

// Get returns the cached recommendation iff the key matches and the entry is
// younger than the TTL. TTL expiry counts as a miss, not an error.
func (s *Service) Get(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, bool) {
	key := EntryKey(fingerprint, assessment)

	entry, err := s.store.GetCachedPortfolio(ctx, key)
	if err != nil {
		return nil, false
	}

	if time.Since(entry.CachedAt) >= s.ttl {
		s.logger.Debug().Str("key", key).Time("cached_at", entry.CachedAt).Msg("Cached portfolio expired")
		return nil, false
	}

	return entry.Recommendation, true
}

// Put overwrites any existing entry unconditionally.
func (s *Service) Put(ctx context.Context, fingerprint string, assessment *models.RiskAssessment, rec *models.PortfolioRecommendation) error {
	entry := &models.CachedPortfolio{
		Key:            EntryKey(fingerprint, assessment),
		Fingerprint:    fingerprint,
		Recommendation: rec,
		CachedAt:       time.Now().UTC(),
	}
	if err := s.store.SaveCachedPortfolio(ctx, entry); err != nil {
		return fmt.Errorf("failed to cache portfolio: %w", err)
	}
	return nil
}

// Clear removes the entry for one assessment, or every entry for the
// fingerprint when assessment is nil. Called on start-new and modify so no
// stale recommendation survives an input change.
func (s *Service) Clear(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) error {
	if assessment != nil {
		if err := s.store.DeleteCachedPortfolio(ctx, EntryKey(fingerprint, assessment)); err != nil {
			return fmt.Errorf("failed to clear cached portfolio: %w", err)
		}
		return nil
	}

	count, err := s.store.DeleteCachedPortfoliosByFingerprint(ctx, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to clear cached portfolios: %w", err)
	}
	s.logger.Debug().Str("fingerprint", fingerprint).Int("cleared", count).Msg("Portfolio cache cleared")
	return nil
}
