package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

type tokenStorage struct {
	store  *Store
	logger *common.Logger
}

// NewTokenStorage creates a ResultTokenStore backed by BadgerHold.
func NewTokenStorage(store *Store, logger *common.Logger) *tokenStorage {
	return &tokenStorage{store: store, logger: logger}
}

func (s *tokenStorage) SaveResultToken(_ context.Context, token *models.ResultToken) error {
	if err := s.store.db.Upsert(token.Token, token); err != nil {
		return fmt.Errorf("failed to save result token: %w", err)
	}
	return nil
}

// TakeResultToken fetches and deletes a token in one step so it can only be
// redeemed once.
func (s *tokenStorage) TakeResultToken(_ context.Context, token string) (*models.ResultToken, error) {
	var record models.ResultToken
	err := s.store.db.Get(token, &record)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("result token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get result token: %w", err)
	}
	if err := s.store.db.Delete(token, models.ResultToken{}); err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to consume result token: %w", err)
	}
	return &record, nil
}

func (s *tokenStorage) PurgeExpiredTokens(_ context.Context) (int, error) {
	var tokens []models.ResultToken
	query := badgerhold.Where("ExpiresAt").Lt(time.Now())
	if err := s.store.db.Find(&tokens, query); err != nil {
		return 0, fmt.Errorf("failed to find expired tokens: %w", err)
	}
	purged := 0
	for _, tok := range tokens {
		if err := s.store.db.Delete(tok.Token, models.ResultToken{}); err != nil && err != badgerhold.ErrNotFound {
			return purged, fmt.Errorf("failed to purge token: %w", err)
		}
		purged++
	}
	return purged, nil
}
