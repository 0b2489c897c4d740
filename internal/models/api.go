package models

import "time"

// Error codes returned in ApiError.Code.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeAuth               = "AUTH_ERROR"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeBackend            = "BACKEND_ERROR"
	ErrCodeSynthesis          = "SYNTHESIS_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ApiError is the normalized error shape all failures are reduced to before
// reaching clients.
type ApiError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ApiResponse is the envelope wrapping every JSON API payload.
type ApiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *ApiError `json:"error,omitempty"`
}

// NewApiError builds an ApiError stamped with the current time.
func NewApiError(code, message, details string) *ApiError {
	return &ApiError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// ClientSignals are the ambient browser attributes a client reports so the
// gateway can derive its fingerprint.
type ClientSignals struct {
	UserAgent        string `json:"userAgent"`
	Language         string `json:"language"`
	Platform         string `json:"platform"`
	ScreenResolution string `json:"screenResolution"`
	Timezone         string `json:"timezone"`
}

// GeneratePortfolioRequest is the body of POST /api/portfolio/generate.
// Fingerprint may be supplied directly or derived from Signals.
type GeneratePortfolioRequest struct {
	RiskAssessment
	Fingerprint string         `json:"fingerprint,omitempty"`
	Signals     *ClientSignals `json:"signals,omitempty"`
}

// GeneratePortfolioResponse is the data payload of a successful generation.
type GeneratePortfolioResponse struct {
	Recommendation *PortfolioRecommendation `json:"recommendation"`
	ResultToken    string                   `json:"resultToken"`
	Cached         bool                     `json:"cached"`
}

// RateLimitRequest is the body of the rate-limit check/increment endpoints.
type RateLimitRequest struct {
	Fingerprint string         `json:"fingerprint,omitempty"`
	Signals     *ClientSignals `json:"signals,omitempty"`
}

// ClearCacheRequest is the body of DELETE /api/portfolio/cache. When
// Assessment is nil, all entries for the fingerprint are removed.
type ClearCacheRequest struct {
	Fingerprint string          `json:"fingerprint"`
	Assessment  *RiskAssessment `json:"assessment,omitempty"`
}

// ConfigResponse is the data payload of GET /api/config.
type ConfigResponse struct {
	MaxFreeAttempts      int              `json:"maxFreeAttempts"`
	RateLimitWindowHours int              `json:"rateLimitWindowHours"`
	SupportedCountries   []CountryProfile `json:"supportedCountries"`
	Features             FeatureFlags     `json:"features"`
}

// FeatureFlags mirrors the runtime feature switches.
type FeatureFlags struct {
	MaintenanceMode      bool `json:"maintenanceMode"`
	NewUserSignupEnabled bool `json:"newUserSignupEnabled"`
}
