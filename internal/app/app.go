// Package app wires configuration, storage, clients, and services into the
// shared core used by cmd/advisor-server.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/foliowise/advisor/internal/clients/agent"
	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/services/cache"
	"github.com/foliowise/advisor/internal/services/flowguard"
	"github.com/foliowise/advisor/internal/services/ratelimit"
	"github.com/foliowise/advisor/internal/services/synthesizer"
	"github.com/foliowise/advisor/internal/storage"
	"github.com/foliowise/advisor/internal/universe"
)

// App holds all initialized services and clients.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Storage            interfaces.StorageManager
	AgentClient        interfaces.AgentClient
	SynthesizerService interfaces.SynthesizerService
	RateLimitService   interfaces.RateLimitService
	CacheService       interfaces.PortfolioCacheService
	FlowGuard          interfaces.FlowGuardService
	StartupTime        time.Time

	purgeCancel context.CancelFunc
}

// NewApp initializes all services, clients, and storage.
// configPath may be empty, in which case ADVISOR_CONFIG and the default
// path are tried in order.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	if configPath == "" {
		configPath = os.Getenv("ADVISOR_CONFIG")
	}
	if configPath == "" {
		configPath = "config/advisor.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	// Instrument catalogs are closed data; fail fast on an invalid table.
	if err := universe.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instrument catalog: %w", err)
	}

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var agentClient interfaces.AgentClient
	if config.Agent.BaseURL != "" {
		agentClient = agent.NewClient(config.Agent.BaseURL, config.Agent.AppKey,
			agent.WithLogger(logger),
			agent.WithRateLimit(config.Agent.RateLimit),
			agent.WithTimeout(config.Agent.GetTimeout()),
		)
	} else {
		logger.Info().Msg("Agent API not configured - using local synthesizer only")
	}

	synthesizerService := synthesizer.NewService(logger)
	rateLimitService := ratelimit.NewService(
		storageManager.RateLimitStore(),
		storageManager.RemoteRateLimitStore(),
		config.RateLimit,
		logger,
	)
	cacheService := cache.NewService(storageManager.PortfolioCacheStore(), config.Cache.GetTTL(), logger)
	guard := flowguard.NewGuard(storageManager.ResultTokenStore(), logger)

	a := &App{
		Config:             config,
		Logger:             logger,
		Storage:            storageManager,
		AgentClient:        agentClient,
		SynthesizerService: synthesizerService,
		RateLimitService:   rateLimitService,
		CacheService:       cacheService,
		FlowGuard:          guard,
		StartupTime:        startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartTokenPurge launches the background sweep that removes expired result
// tokens so abandoned flows do not accumulate in the store.
func (a *App) StartTokenPurge(interval time.Duration) {
	purgeCtx, cancel := context.WithCancel(context.Background())
	a.purgeCancel = cancel
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				purged, err := a.Storage.ResultTokenStore().PurgeExpiredTokens(purgeCtx)
				if err != nil {
					a.Logger.Warn().Err(err).Msg("Result token purge failed")
					continue
				}
				if purged > 0 {
					a.Logger.Debug().Int("purged", purged).Msg("Expired result tokens purged")
				}
			}
		}
	}()
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.purgeCancel != nil {
		a.purgeCancel()
		a.purgeCancel = nil
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}
