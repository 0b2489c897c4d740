package badger

import (
	"context"
	"fmt"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ErrNotFound is returned when a record does not exist in the local store.
var ErrNotFound = badgerhold.ErrNotFound

type rateLimitStorage struct {
	store  *Store
	logger *common.Logger
}

// NewRateLimitStorage creates a RateLimitStore backed by BadgerHold.
func NewRateLimitStorage(store *Store, logger *common.Logger) *rateLimitStorage {
	return &rateLimitStorage{store: store, logger: logger}
}

func (s *rateLimitStorage) GetRateLimit(_ context.Context, fingerprint string) (*models.RateLimitRecord, error) {
	var record models.RateLimitRecord
	err := s.store.db.Get(fingerprint, &record)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("rate limit record for '%s': %w", fingerprint, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get rate limit record for '%s': %w", fingerprint, err)
	}
	return &record, nil
}

func (s *rateLimitStorage) SaveRateLimit(_ context.Context, record *models.RateLimitRecord) error {
	if err := s.store.db.Upsert(record.Fingerprint, record); err != nil {
		return fmt.Errorf("failed to save rate limit record for '%s': %w", record.Fingerprint, err)
	}
	return nil
}
