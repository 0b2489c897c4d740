package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliowise/advisor/internal/app"
	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/models"
	"github.com/foliowise/advisor/internal/services/flowguard"
)

// mockSynthesizer implements interfaces.SynthesizerService for testing.
type mockSynthesizer struct {
	synthesize func(ctx context.Context, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error)
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error) {
	if m.synthesize != nil {
		return m.synthesize(ctx, assessment)
	}
	return sampleRecommendation(), nil
}

// mockRateLimit implements interfaces.RateLimitService for testing.
type mockRateLimit struct {
	check      func(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error)
	increments int
}

func (m *mockRateLimit) Check(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error) {
	if m.check != nil {
		return m.check(ctx, fingerprint)
	}
	return &models.RateLimitStatus{Allowed: true, AttemptsRemaining: 2}, nil
}

func (m *mockRateLimit) Increment(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error) {
	m.increments++
	return &models.RateLimitStatus{Allowed: true, AttemptsUsed: 1, AttemptsRemaining: 1}, nil
}

// mockCacheService implements interfaces.PortfolioCacheService for testing.
type mockCacheService struct {
	get  func(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, bool)
	puts int
}

func (m *mockCacheService) Get(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, bool) {
	if m.get != nil {
		return m.get(ctx, fingerprint, assessment)
	}
	return nil, false
}

func (m *mockCacheService) Put(ctx context.Context, fingerprint string, assessment *models.RiskAssessment, rec *models.PortfolioRecommendation) error {
	m.puts++
	return nil
}

func (m *mockCacheService) Clear(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) error {
	return nil
}

// mockFlowGuard implements interfaces.FlowGuardService for testing.
type mockFlowGuard struct {
	consume func(ctx context.Context, token string) (string, error)
}

func (m *mockFlowGuard) Issue(ctx context.Context, cacheKey string) (string, error) {
	return "test-token", nil
}

func (m *mockFlowGuard) Consume(ctx context.Context, token string) (string, error) {
	if m.consume != nil {
		return m.consume(ctx, token)
	}
	return "", flowguard.ErrNoFlow
}

// mockCacheStore implements interfaces.PortfolioCacheStore for testing.
type mockCacheStore struct {
	get func(ctx context.Context, key string) (*models.CachedPortfolio, error)
}

func (m *mockCacheStore) GetCachedPortfolio(ctx context.Context, key string) (*models.CachedPortfolio, error) {
	if m.get != nil {
		return m.get(ctx, key)
	}
	return nil, errors.New("not found")
}

func (m *mockCacheStore) SaveCachedPortfolio(ctx context.Context, entry *models.CachedPortfolio) error {
	return nil
}

func (m *mockCacheStore) DeleteCachedPortfolio(ctx context.Context, key string) error {
	return nil
}

func (m *mockCacheStore) DeleteCachedPortfoliosByFingerprint(ctx context.Context, fingerprint string) (int, error) {
	return 0, nil
}

// mockStorage implements interfaces.StorageManager for testing.
type mockStorage struct {
	cacheStore interfaces.PortfolioCacheStore
}

func (m *mockStorage) RateLimitStore() interfaces.RateLimitStore { return nil }

func (m *mockStorage) RemoteRateLimitStore() interfaces.RateLimitStore { return nil }

func (m *mockStorage) PortfolioCacheStore() interfaces.PortfolioCacheStore { return m.cacheStore }

func (m *mockStorage) ResultTokenStore() interfaces.ResultTokenStore { return nil }

func (m *mockStorage) Close() error { return nil }

func sampleRecommendation() *models.PortfolioRecommendation {
	return &models.PortfolioRecommendation{
		Recommendations: []models.StockRecommendation{
			{Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: "Technology", Country: "USA", Allocation: 100, ExpectedReturn: 11.9},
		},
		TotalExpectedReturn: 11.9,
		RiskScore:           5.8,
		ProjectedGrowth: []models.ProjectedGrowth{
			{Year: 0, ProjectedValue: 10000},
			{Year: 1, ProjectedValue: 11190},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

type testDeps struct {
	synthesizer *mockSynthesizer
	rateLimit   *mockRateLimit
	cache       *mockCacheService
	flowGuard   *mockFlowGuard
	cacheStore  *mockCacheStore
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()
	deps := &testDeps{
		synthesizer: &mockSynthesizer{},
		rateLimit:   &mockRateLimit{},
		cache:       &mockCacheService{},
		flowGuard:   &mockFlowGuard{},
		cacheStore:  &mockCacheStore{},
	}
	logger := common.NewSilentLogger()
	a := &app.App{
		Config:             common.NewDefaultConfig(),
		Logger:             logger,
		Storage:            &mockStorage{cacheStore: deps.cacheStore},
		SynthesizerService: deps.synthesizer,
		RateLimitService:   deps.rateLimit,
		CacheService:       deps.cache,
		FlowGuard:          deps.flowGuard,
		StartupTime:        time.Now(),
	}
	return &Server{app: a, logger: logger}, deps
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.ApiResponse {
	t.Helper()
	var resp models.ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp), rec.Body.String())
	return resp
}

func generateBody(t *testing.T) *bytes.Buffer {
	return jsonBody(t, map[string]interface{}{
		"riskTolerance":          "Medium",
		"investmentHorizonYears": 10,
		"country":                "USA",
		"investmentAmount":       10000,
		"fingerprint":            "fp-test",
	})
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// Health is unwrapped plain JSON for probes.
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["maxFreeAttempts"])
	assert.Equal(t, float64(24), data["rateLimitWindowHours"])
	assert.Len(t, data["supportedCountries"], 4)
}

func TestHandleGenerate_Success(t *testing.T) {
	srv, deps := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", generateBody(t))
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "test-token", data["resultToken"])
	assert.Equal(t, false, data["cached"])
	assert.Equal(t, 1, deps.rateLimit.increments, "a fresh generation spends an attempt")
	assert.Equal(t, 1, deps.cache.puts, "result is cached")
}

func TestHandleGenerate_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio/generate", nil)
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleGenerate_InvalidAssessment(t *testing.T) {
	srv, deps := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"riskTolerance":          "Medium",
		"investmentHorizonYears": 10,
		"country":                "USA",
		"investmentAmount":       950, // not a multiple of 100
		"fingerprint":            "fp-test",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", body)
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, models.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, 0, deps.rateLimit.increments, "rejected input spends no attempt")
}

func TestHandleGenerate_MissingFingerprintAndSignals(t *testing.T) {
	srv, _ := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"riskTolerance":          "Medium",
		"investmentHorizonYears": 10,
		"country":                "USA",
		"investmentAmount":       10000,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", body)
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, models.ErrCodeValidation, resp.Error.Code)
}

func TestHandleGenerate_SignalsDeriveFingerprint(t *testing.T) {
	srv, deps := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{
		"riskTolerance":          "Medium",
		"investmentHorizonYears": 10,
		"country":                "USA",
		"investmentAmount":       10000,
		"signals": map[string]string{
			"userAgent":        "Mozilla/5.0",
			"language":         "en-US",
			"platform":         "MacIntel",
			"screenResolution": "2560x1440",
			"timezone":         "America/New_York",
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", body)
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, deps.rateLimit.increments)
}

func TestHandleGenerate_RateLimited(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.rateLimit.check = func(ctx context.Context, fingerprint string) (*models.RateLimitStatus, error) {
		return &models.RateLimitStatus{Allowed: false, AttemptsUsed: 2}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", generateBody(t))
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, models.ErrCodeRateLimitExceeded, resp.Error.Code)
	assert.NotNil(t, resp.Data, "status included so clients can render the reset time")
	assert.Equal(t, 0, deps.rateLimit.increments)
}

func TestHandleGenerate_CacheHitSkipsIncrement(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.cache.get = func(ctx context.Context, fingerprint string, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, bool) {
		return sampleRecommendation(), true
	}

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", generateBody(t))
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["cached"])
	assert.Equal(t, 0, deps.rateLimit.increments, "replaying a cached result is free")
	assert.Equal(t, 0, deps.cache.puts)
}

func TestHandleGenerate_SynthesisFailure(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.synthesizer.synthesize = func(ctx context.Context, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error) {
		return nil, errors.New("universe unavailable")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", generateBody(t))
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, models.ErrCodeSynthesis, resp.Error.Code)
}

func TestHandleGenerate_MaintenanceMode(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.app.Config.Features.MaintenanceMode = true

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/generate", generateBody(t))
	rec := httptest.NewRecorder()
	srv.handlePortfolioGenerate(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, models.ErrCodeServiceUnavailable, resp.Error.Code)
}

func TestHandleResult_Success(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.flowGuard.consume = func(ctx context.Context, token string) (string, error) {
		require.Equal(t, "tok-1", token)
		return "fp-test#Medium|10|USA|10000|USD", nil
	}
	deps.cacheStore.get = func(ctx context.Context, key string) (*models.CachedPortfolio, error) {
		return &models.CachedPortfolio{
			Key:            key,
			Fingerprint:    "fp-test",
			Recommendation: sampleRecommendation(),
			CachedAt:       time.Now().UTC(),
		}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio/result?token=tok-1", nil)
	rec := httptest.NewRecorder()
	srv.handlePortfolioResult(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.NotNil(t, data["recommendation"])
}

func TestHandleResult_MissingToken(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio/result", nil)
	rec := httptest.NewRecorder()
	srv.handlePortfolioResult(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResult_NoFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio/result?token=stale", nil)
	rec := httptest.NewRecorder()
	srv.handlePortfolioResult(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, models.ErrCodeNotFound, resp.Error.Code)
}

func TestHandleCacheClear(t *testing.T) {
	srv, _ := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{"fingerprint": "fp-test"})
	req := httptest.NewRequest(http.MethodDelete, "/api/portfolio/cache", body)
	rec := httptest.NewRecorder()
	srv.handlePortfolioCacheClear(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
}

func TestHandleCacheClear_MissingFingerprint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{})
	req := httptest.NewRequest(http.MethodDelete, "/api/portfolio/cache", body)
	rec := httptest.NewRecorder()
	srv.handlePortfolioCacheClear(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRateLimitCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{"fingerprint": "fp-test"})
	req := httptest.NewRequest(http.MethodPost, "/api/rate-limit/check", body)
	rec := httptest.NewRecorder()
	srv.handleRateLimitCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["allowed"])
}

func TestHandleRateLimitIncrement(t *testing.T) {
	srv, deps := newTestServer(t)

	body := jsonBody(t, map[string]interface{}{"fingerprint": "fp-test"})
	req := httptest.NewRequest(http.MethodPost, "/api/rate-limit/increment", body)
	rec := httptest.NewRecorder()
	srv.handleRateLimitIncrement(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, deps.rateLimit.increments)
}
