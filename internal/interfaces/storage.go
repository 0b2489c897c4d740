// Package interfaces defines service and storage contracts for the advisor service
package interfaces

import (
	"context"

	"github.com/foliowise/advisor/internal/models"
)

// RateLimitStore persists per-fingerprint attempt records. Implemented by
// both the local BadgerHold store and the remote SurrealDB store; writes to
// the remote store are best-effort.
type RateLimitStore interface {
	GetRateLimit(ctx context.Context, fingerprint string) (*models.RateLimitRecord, error)
	SaveRateLimit(ctx context.Context, record *models.RateLimitRecord) error
}

// PortfolioCacheStore persists cached recommendations keyed by the
// assessment value tuple.
type PortfolioCacheStore interface {
	GetCachedPortfolio(ctx context.Context, key string) (*models.CachedPortfolio, error)
	SaveCachedPortfolio(ctx context.Context, entry *models.CachedPortfolio) error
	DeleteCachedPortfolio(ctx context.Context, key string) error
	DeleteCachedPortfoliosByFingerprint(ctx context.Context, fingerprint string) (int, error)
}

// ResultTokenStore persists one-shot flow tokens.
type ResultTokenStore interface {
	SaveResultToken(ctx context.Context, token *models.ResultToken) error
	// TakeResultToken atomically fetches and deletes a token. Returns
	// ErrNotFound (wrapped) when the token is absent or already consumed.
	TakeResultToken(ctx context.Context, token string) (*models.ResultToken, error)
	PurgeExpiredTokens(ctx context.Context) (int, error)
}

// StorageManager coordinates the local store and the optional remote store.
type StorageManager interface {
	RateLimitStore() RateLimitStore
	RemoteRateLimitStore() RateLimitStore // nil when no remote store is configured
	PortfolioCacheStore() PortfolioCacheStore
	ResultTokenStore() ResultTokenStore

	Close() error
}
