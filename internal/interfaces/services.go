package interfaces

import (
	"context"

	"github.com/foliowise/advisor/internal/models"
)

// SynthesizerService maps a validated risk assessment to a portfolio
// recommendation.
type SynthesizerService interface {
	Synthesize(ctx context.Context, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error)
}

// RateLimitService enforces the per-fingerprint free-attempt gate.
// Check never blocks the caller: store failures degrade to allowed=true.
type RateLimitService interface {
	Check(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error)
	Increment(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error)
}

// PortfolioCacheService caches the last recommendation per assessment with a TTL.
type PortfolioCacheService interface {
	Get(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, bool)
	Put(ctx context.Context, fingerprint string, assessment *models.RiskAssessment, rec *models.PortfolioRecommendation) error
	Clear(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) error
}

// FlowGuardService gates the results view behind one-shot tokens.
type FlowGuardService interface {
	Issue(ctx context.Context, cacheKey string) (string, error)
	// Consume redeems a token exactly once, returning the cache key it was
	// bound to. A second consume of the same token fails.
	Consume(ctx context.Context, token string) (string, error)
}
