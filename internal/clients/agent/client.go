// Package agent provides a client for the remote portfolio agent API
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/models"
)

// Compile-time interface check
var _ interfaces.AgentClient = (*Client)(nil)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultRateLimit    = 5 // requests per second
	DefaultRetryElapsed = 20 * time.Second
)

// Client implements the AgentClient interface. Callers fall back to the
// local synthesizer when the agent is unreachable.
type Client struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	maxElapsed time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryElapsed bounds the total retry time per call
func WithRetryElapsed(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxElapsed = d
	}
}

// NewClient creates a new agent client
func NewClient(baseURL, appKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		appKey:  appKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
		maxElapsed: DefaultRetryElapsed,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an agent API error
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent API error: %s (status: %d)", e.Message, e.StatusCode)
}

// agentResponse mirrors the agent's wire format.
type agentResponse struct {
	Recommendations     []models.StockRecommendation `json:"recommendations"`
	TotalExpectedReturn float64                      `json:"totalExpectedReturn"`
	RiskScore           float64                      `json:"riskScore"`
	ProjectedGrowth     []models.ProjectedGrowth     `json:"projectedGrowth"`
	GeneratedAt         time.Time                    `json:"generatedAt"`
	Error               string                       `json:"error,omitempty"`
}

// GeneratePortfolio forwards the assessment to the remote agent. Transient
// failures (network errors, 5xx) are retried with exponential backoff; 4xx
// responses fail immediately.
func (c *Client) GeneratePortfolio(ctx context.Context, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(assessment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assessment: %w", err)
	}

	var result agentResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-portfolio", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Portfolio-App-Key", c.appKey)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed

	c.logger.Debug().Str("url", c.baseURL).Msg("Agent API request")

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	if result.Error != "" {
		return nil, fmt.Errorf("agent generation failed: %s", result.Error)
	}

	rec := &models.PortfolioRecommendation{
		Recommendations:     result.Recommendations,
		TotalExpectedReturn: result.TotalExpectedReturn,
		RiskScore:           result.RiskScore,
		ProjectedGrowth:     result.ProjectedGrowth,
		GeneratedAt:         result.GeneratedAt,
	}
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}
	return rec, nil
}
