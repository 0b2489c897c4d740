package interfaces

import (
	"context"

	"github.com/foliowise/advisor/internal/models"
)

// AgentClient calls the remote agent API for portfolio generation. The
// gateway falls back to the local synthesizer when the agent is unavailable.
type AgentClient interface {
	GeneratePortfolio(ctx context.Context, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error)
}
