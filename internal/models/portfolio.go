package models

import "time"

// StockRecommendation is a single instrument in a recommendation, with its
// share of the portfolio and risk-adjusted expected annual return.
type StockRecommendation struct {
	Symbol         string  `json:"symbol"`
	CompanyName    string  `json:"companyName"`
	Sector         string  `json:"sector"`
	Country        string  `json:"country"`
	Allocation     float64 `json:"allocation"`     // percent of portfolio, one decimal
	ExpectedReturn float64 `json:"expectedReturn"` // percent per annum, one decimal
}

// ProjectedGrowth is the portfolio value at the end of a given year.
type ProjectedGrowth struct {
	Year           int     `json:"year"`
	ProjectedValue float64 `json:"projectedValue"`
}

// PortfolioRecommendation is the synthesized result for one assessment.
// Allocations across recommendations sum to 100 (±0.1 after rounding);
// ProjectedGrowth holds horizon+1 points with year 0 equal to the amount.
type PortfolioRecommendation struct {
	Recommendations     []StockRecommendation `json:"recommendations"`
	TotalExpectedReturn float64               `json:"totalExpectedReturn"`
	RiskScore           float64               `json:"riskScore"`
	ProjectedGrowth     []ProjectedGrowth     `json:"projectedGrowth"`
	GeneratedAt         time.Time             `json:"generatedAt"`
}

// AllocationSum returns the total allocation across all recommendations.
func (p *PortfolioRecommendation) AllocationSum() float64 {
	var sum float64
	for _, r := range p.Recommendations {
		sum += r.Allocation
	}
	return sum
}

// CachedPortfolio is a session-scoped cache record for one recommendation.
// Overwritten unconditionally by the next synthesis for the same key.
type CachedPortfolio struct {
	Key            string                   `json:"key" badgerhold:"key"`
	Fingerprint    string                   `json:"fingerprint"`
	Recommendation *PortfolioRecommendation `json:"recommendation"`
	CachedAt       time.Time                `json:"cached_at"`
}

// ResultToken is the one-shot flow guard record. Issued on a successful
// synthesis, consumed exactly once by the results fetch.
type ResultToken struct {
	Token     string    `json:"token" badgerhold:"key"`
	CacheKey  string    `json:"cache_key"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
