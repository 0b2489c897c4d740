// Package storage wires the local BadgerHold store and the optional remote
// SurrealDB store behind the StorageManager interface.
package storage

import (
	"fmt"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/storage/badger"
	"github.com/foliowise/advisor/internal/storage/surrealdb"
)

// Compile-time interface check
var _ interfaces.StorageManager = (*Manager)(nil)

// Manager implements interfaces.StorageManager.
type Manager struct {
	local  *badger.Store
	remote *surrealdb.RateLimitStore
	logger *common.Logger

	rateLimitStore interfaces.RateLimitStore
	cacheStore     interfaces.PortfolioCacheStore
	tokenStore     interfaces.ResultTokenStore
}

// NewManager opens the local store and, when configured, connects the remote
// rate-limit store. A remote connection failure is not fatal: the service
// degrades to local-only operation.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	local, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	m := &Manager{
		local:          local,
		logger:         logger,
		rateLimitStore: badger.NewRateLimitStorage(local, logger),
		cacheStore:     badger.NewCacheStorage(local, logger),
		tokenStore:     badger.NewTokenStorage(local, logger),
	}

	if config.Storage.RemoteEnabled() {
		remote, err := surrealdb.NewRateLimitStore(logger, config.Storage)
		if err != nil {
			logger.Warn().Err(err).Msg("Remote store unavailable - rate limiting degrades to local-only")
		} else {
			m.remote = remote
		}
	}

	return m, nil
}

func (m *Manager) RateLimitStore() interfaces.RateLimitStore {
	return m.rateLimitStore
}

// RemoteRateLimitStore returns nil when no remote store is connected.
func (m *Manager) RemoteRateLimitStore() interfaces.RateLimitStore {
	if m.remote == nil {
		return nil
	}
	return m.remote
}

func (m *Manager) PortfolioCacheStore() interfaces.PortfolioCacheStore {
	return m.cacheStore
}

func (m *Manager) ResultTokenStore() interfaces.ResultTokenStore {
	return m.tokenStore
}

// Close releases both stores.
func (m *Manager) Close() error {
	if m.remote != nil {
		if err := m.remote.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to close remote store")
		}
	}
	if m.local != nil {
		return m.local.Close()
	}
	return nil
}
