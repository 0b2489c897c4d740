// Package synthesizer maps a validated risk assessment to a mock portfolio
// recommendation: universe selection, risk filtering, allocation synthesis,
// and a multi-year growth projection.
package synthesizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/interfaces"
	"github.com/foliowise/advisor/internal/models"
	"github.com/foliowise/advisor/internal/universe"
)

// Compile-time interface check
var _ interfaces.SynthesizerService = (*Service)(nil)

// Risk scores per tolerance, fixed lookup.
const (
	riskScoreLow    = 3.2
	riskScoreMedium = 5.8
	riskScoreHigh   = 8.1
)

// Return adjustment factors per tolerance.
const (
	returnFactorLow    = 0.8
	returnFactorMedium = 0.95
	returnFactorHigh   = 1.15
)

// Service implements SynthesizerService.
type Service struct {
	logger  *common.Logger
	newRand func() Rand
}

// Option configures the service.
type Option func(*Service)

// WithRandSource overrides the randomness source factory (used by tests).
func WithRandSource(factory func() Rand) Option {
	return func(s *Service) {
		s.newRand = factory
	}
}

// NewService creates a new synthesizer service.
func NewService(logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		logger:  logger,
		newRand: newDefaultRand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize builds a recommendation from an assessment. Any failure
// propagates; no partial recommendation is returned.
func (s *Service) Synthesize(_ context.Context, assessment *models.RiskAssessment) (*models.PortfolioRecommendation, error) {
	rng := s.newRand()

	pool := universe.ForCountry(assessment.Country)
	if len(pool) == 0 {
		return nil, fmt.Errorf("no instrument universe available for %s", assessment.Country)
	}

	target := targetCount(assessment.RiskTolerance)
	filtered := riskFilter(pool, assessment.RiskTolerance)
	if len(filtered) < target {
		// Too aggressive a filter for this universe - fall back to the full list
		filtered = pool
	}
	if target > len(filtered) {
		target = len(filtered)
	}

	rng.Shuffle(len(filtered), func(i, j int) {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	})
	selected := filtered[:target]

	allocations := synthesizeAllocations(rng, assessment.RiskTolerance, len(selected))

	factor := returnFactor(assessment.RiskTolerance)
	recommendations := make([]models.StockRecommendation, len(selected))
	var blended float64
	for i, inst := range selected {
		adjusted := round1(inst.BaseReturn * factor)
		recommendations[i] = models.StockRecommendation{
			Symbol:         inst.Symbol,
			CompanyName:    inst.CompanyName,
			Sector:         inst.Sector,
			Country:        assessment.Country,
			Allocation:     allocations[i],
			ExpectedReturn: adjusted,
		}
		blended += allocations[i] / 100 * adjusted
	}
	blended = round1(blended)

	projection := projectGrowth(assessment.InvestmentAmount, blended, assessment.InvestmentHorizonYears)

	rec := &models.PortfolioRecommendation{
		Recommendations:     recommendations,
		TotalExpectedReturn: blended,
		RiskScore:           riskScore(assessment.RiskTolerance),
		ProjectedGrowth:     projection,
		GeneratedAt:         time.Now().UTC(),
	}

	s.logger.Debug().
		Str("tolerance", string(assessment.RiskTolerance)).
		Str("country", assessment.Country).
		Int("instruments", len(recommendations)).
		Float64("blended_return", blended).
		Msg("Portfolio synthesized")

	return rec, nil
}

// targetCount returns the instrument count per tolerance: more
// diversification at lower risk.
func targetCount(tolerance models.RiskTolerance) int {
	switch tolerance {
	case models.RiskToleranceLow:
		return 6
	case models.RiskToleranceHigh:
		return 4
	default:
		return 5
	}
}

func riskScore(tolerance models.RiskTolerance) float64 {
	switch tolerance {
	case models.RiskToleranceLow:
		return riskScoreLow
	case models.RiskToleranceHigh:
		return riskScoreHigh
	default:
		return riskScoreMedium
	}
}

func returnFactor(tolerance models.RiskTolerance) float64 {
	switch tolerance {
	case models.RiskToleranceLow:
		return returnFactorLow
	case models.RiskToleranceHigh:
		return returnFactorHigh
	default:
		return returnFactorMedium
	}
}

// riskFilter narrows the universe by tolerance. Medium keeps everything.
func riskFilter(pool []universe.Instrument, tolerance models.RiskTolerance) []universe.Instrument {
	switch tolerance {
	case models.RiskToleranceLow:
		return filter(pool, func(inst universe.Instrument) bool {
			switch inst.Sector {
			case universe.SectorHealthcare, universe.SectorConsumerGoods, universe.SectorFinancialServices:
				return true
			}
			return inst.BaseReturn < 12
		})
	case models.RiskToleranceHigh:
		return filter(pool, func(inst universe.Instrument) bool {
			switch inst.Sector {
			case universe.SectorTechnology, universe.SectorConsumerDiscretionary, universe.SectorAutomotive:
				return true
			}
			return inst.BaseReturn > 10
		})
	default:
		return pool
	}
}

func filter(pool []universe.Instrument, keep func(universe.Instrument) bool) []universe.Instrument {
	var out []universe.Instrument
	for _, inst := range pool {
		if keep(inst) {
			out = append(out, inst)
		}
	}
	return out
}

// synthesizeAllocations produces n allocation percentages summing to exactly
// 100.0 after rounding to one decimal.
//
// Low/Medium perturb an equal split; High seeds two dominant positions and
// spreads the remainder evenly across the rest.
func synthesizeAllocations(rng Rand, tolerance models.RiskTolerance, n int) []float64 {
	raw := make([]float64, n)

	switch tolerance {
	case models.RiskToleranceHigh:
		if n >= 2 {
			raw[0] = uniform(rng, 35, 45)
			raw[1] = uniform(rng, 25, 33)
			remainder := 100 - raw[0] - raw[1]
			rest := n - 2
			for i := 2; i < n; i++ {
				raw[i] = remainder/float64(rest) + jitter(rng, 1.5)
			}
		} else {
			raw[0] = 100
		}
	default:
		base := 100 / float64(n)
		spread := 2.0
		if tolerance == models.RiskToleranceMedium {
			spread = 3.0
		}
		for i := range raw {
			raw[i] = base + jitter(rng, spread)
		}
	}

	return normalize(raw)
}

// normalize rescales allocations to sum to 100 and rounds to one decimal,
// folding rounding drift into the first position.
func normalize(raw []float64) []float64 {
	var sum float64
	for _, v := range raw {
		sum += v
	}

	out := make([]float64, len(raw))
	var rounded float64
	for i, v := range raw {
		out[i] = round1(v / sum * 100)
		rounded += out[i]
	}

	if drift := round1(100 - rounded); drift != 0 {
		out[0] = round1(out[0] + drift)
	}
	return out
}

// projectGrowth compounds the amount at the blended return for each year
// from 0 through horizon inclusive. Year 0 equals the original amount.
func projectGrowth(amount, blendedReturn float64, horizonYears int) []models.ProjectedGrowth {
	points := make([]models.ProjectedGrowth, 0, horizonYears+1)
	for year := 0; year <= horizonYears; year++ {
		value := amount * math.Pow(1+blendedReturn/100, float64(year))
		points = append(points, models.ProjectedGrowth{
			Year:           year,
			ProjectedValue: math.Round(value),
		})
	}
	return points
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
