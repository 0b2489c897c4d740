// Package surrealdb provides the remote rate-limit store. Remote reads are
// preferred over the local store; remote writes are best-effort merges.
package surrealdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ErrNotFound is returned when no record exists for a fingerprint.
var ErrNotFound = errors.New("record not found")

// RateLimitStore implements interfaces.RateLimitStore over SurrealDB.
type RateLimitStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewRateLimitStore connects to SurrealDB and prepares the rate_limits table.
func NewRateLimitStore(logger *common.Logger, cfg common.StorageConfig) (*RateLimitStore, error) {
	ctx := context.Background()

	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// SurrealDB v3 errors on querying non-existent tables
	if _, err := surrealdb.Query[any](ctx, db, "DEFINE TABLE IF NOT EXISTS rate_limits SCHEMALESS", nil); err != nil {
		return nil, fmt.Errorf("failed to define rate_limits table: %w", err)
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("Remote rate-limit store initialized")

	return &RateLimitStore{db: db, logger: logger}, nil
}

func (s *RateLimitStore) GetRateLimit(ctx context.Context, fingerprint string) (*models.RateLimitRecord, error) {
	record, err := surrealdb.Select[models.RateLimitRecord](ctx, s.db, surrealmodels.NewRecordID("rate_limits", fingerprint))
	if err != nil {
		return nil, fmt.Errorf("failed to select rate limit record: %w", err)
	}
	if record == nil || record.Fingerprint == "" {
		return nil, fmt.Errorf("rate limit record for '%s': %w", fingerprint, ErrNotFound)
	}
	return record, nil
}

// SaveRateLimit upserts with merge semantics. Concurrent writers race
// last-write-wins; acceptable for a freemium gate.
func (s *RateLimitStore) SaveRateLimit(ctx context.Context, record *models.RateLimitRecord) error {
	sql := "UPSERT type::record('rate_limits', $id) MERGE $record"
	vars := map[string]any{"id": record.Fingerprint, "record": record}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.RateLimitRecord](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save rate limit record after retries: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *RateLimitStore) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}
