// Package flowguard gates the results view behind one-shot tokens. A token
// is issued only on a successful synthesis and consumed by exactly one
// results fetch; back-navigation, bookmarks, and refreshes without a fresh
// submission are denied.
package flowguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/models"
	"github.com/foliowise/advisor/internal/storage/badger"
)

// Compile-time interface check
var _ interfaces.FlowGuardService = (*Guard)(nil)

// ErrNoFlow is returned when a token is absent, expired, or already consumed.
var ErrNoFlow = errors.New("no valid flow for results view")

// DefaultTokenTTL bounds how long an unconsumed token stays redeemable.
const DefaultTokenTTL = 10 * time.Minute

// Guard implements FlowGuardService over a ResultTokenStore.
type Guard struct {
	store  interfaces.ResultTokenStore
	ttl    time.Duration
	logger *common.Logger
}

// NewGuard creates a new flow guard.
func NewGuard(store interfaces.ResultTokenStore, logger *common.Logger) *Guard {
	return &Guard{
		store:  store,
		ttl:    DefaultTokenTTL,
		logger: logger,
	}
}

// Issue mints a one-shot token bound to a cache key.
func (g *Guard) Issue(ctx context.Context, cacheKey string) (string, error) {
	now := time.Now().UTC()
	token := &models.ResultToken{
		Token:     uuid.New().String(),
		CacheKey:  cacheKey,
		IssuedAt:  now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.store.SaveResultToken(ctx, token); err != nil {
		return "", fmt.Errorf("failed to issue result token: %w", err)
	}
	return token.Token, nil
}

// Consume redeems a token exactly once. Expired and already-consumed tokens
// both fail with ErrNoFlow.
func (g *Guard) Consume(ctx context.Context, token string) (string, error) {
	record, err := g.store.TakeResultToken(ctx, token)
	if err != nil {
		if errors.Is(err, badger.ErrNotFound) {
			return "", ErrNoFlow
		}
		return "", fmt.Errorf("failed to consume result token: %w", err)
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		return "", ErrNoFlow
	}
	return record.CacheKey, nil
}
