package badger

import (
	"context"
	"fmt"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

type cacheStorage struct {
	store  *Store
	logger *common.Logger
}

// NewCacheStorage creates a PortfolioCacheStore backed by BadgerHold.
func NewCacheStorage(store *Store, logger *common.Logger) *cacheStorage {
	return &cacheStorage{store: store, logger: logger}
}

func (s *cacheStorage) GetCachedPortfolio(_ context.Context, key string) (*models.CachedPortfolio, error) {
	var entry models.CachedPortfolio
	err := s.store.db.Get(key, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("cached portfolio '%s': %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cached portfolio '%s': %w", key, err)
	}
	return &entry, nil
}

func (s *cacheStorage) SaveCachedPortfolio(_ context.Context, entry *models.CachedPortfolio) error {
	if err := s.store.db.Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to save cached portfolio '%s': %w", entry.Key, err)
	}
	return nil
}

func (s *cacheStorage) DeleteCachedPortfolio(_ context.Context, key string) error {
	err := s.store.db.Delete(key, models.CachedPortfolio{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete cached portfolio '%s': %w", key, err)
	}
	return nil
}

func (s *cacheStorage) DeleteCachedPortfoliosByFingerprint(_ context.Context, fingerprint string) (int, error) {
	var entries []models.CachedPortfolio
	query := badgerhold.Where("Fingerprint").Eq(fingerprint)
	if err := s.store.db.Find(&entries, query); err != nil {
		return 0, fmt.Errorf("failed to find cached portfolios for '%s': %w", fingerprint, err)
	}
	deleted := 0
	for _, entry := range entries {
		if err := s.store.db.Delete(entry.Key, models.CachedPortfolio{}); err != nil && err != badgerhold.ErrNotFound {
			return deleted, fmt.Errorf("failed to delete cached portfolio '%s': %w", entry.Key, err)
		}
		deleted++
	}
	return deleted, nil
}
