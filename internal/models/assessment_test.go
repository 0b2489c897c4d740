package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAssessment() RiskAssessment {
	return RiskAssessment{
		RiskTolerance:          RiskToleranceMedium,
		InvestmentHorizonYears: 10,
		Country:                "USA",
		InvestmentAmount:       10000,
	}
}

func TestRiskAssessmentValidate_Success(t *testing.T) {
	a := validAssessment()
	require.NoError(t, a.Validate())
	assert.Equal(t, "USD", a.Currency, "currency derived from country")
}

func TestRiskAssessmentValidate_CountryCaseInsensitive(t *testing.T) {
	a := validAssessment()
	a.Country = "usa"
	require.NoError(t, a.Validate())
	assert.Equal(t, "USA", a.Country, "country canonicalized")
}

func TestRiskAssessmentValidate_Tolerance(t *testing.T) {
	a := validAssessment()
	a.RiskTolerance = "Aggressive"
	assert.ErrorContains(t, a.Validate(), "riskTolerance")
}

func TestRiskAssessmentValidate_HorizonBounds(t *testing.T) {
	for _, years := range []int{0, -1, 31} {
		a := validAssessment()
		a.InvestmentHorizonYears = years
		assert.ErrorContains(t, a.Validate(), "investmentHorizonYears", "years=%d", years)
	}

	for _, years := range []int{1, 30} {
		a := validAssessment()
		a.InvestmentHorizonYears = years
		assert.NoError(t, a.Validate(), "years=%d", years)
	}
}

func TestRiskAssessmentValidate_UnsupportedCountry(t *testing.T) {
	a := validAssessment()
	a.Country = "Australia"
	assert.ErrorContains(t, a.Validate(), "not supported")
}

func TestRiskAssessmentValidate_AmountRules(t *testing.T) {
	cases := []struct {
		name    string
		amount  float64
		country string
		wantErr string
	}{
		{"zero", 0, "USA", "positive"},
		{"negative", -1000, "USA", "positive"},
		{"not multiple of 100", 1050, "USA", "multiple of 100"},
		{"fractional", 1000.5, "USA", "multiple of 100"},
		{"below USA minimum", 900, "USA", "below the minimum"},
		{"below India minimum", 5000, "India", "below the minimum"},
		{"above maximum", 20000000, "USA", "exceeds the maximum"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAssessment()
			a.Country = tc.country
			a.InvestmentAmount = tc.amount
			assert.ErrorContains(t, a.Validate(), tc.wantErr)
		})
	}

	a := validAssessment()
	a.Country = "India"
	a.InvestmentAmount = 20000
	assert.NoError(t, a.Validate())
}

func TestRiskAssessmentValidate_CurrencyMismatch(t *testing.T) {
	a := validAssessment()
	a.Currency = "EUR"
	assert.ErrorContains(t, a.Validate(), "does not match")

	a = validAssessment()
	a.Currency = "usd"
	require.NoError(t, a.Validate())
	assert.Equal(t, "USD", a.Currency)
}

func TestCacheKey_Injective(t *testing.T) {
	a := validAssessment()
	require.NoError(t, a.Validate())

	b := a
	b.InvestmentAmount = 20000
	c := a
	c.RiskTolerance = RiskToleranceHigh
	d := a
	d.InvestmentHorizonYears = 11

	keys := map[string]bool{}
	for _, x := range []RiskAssessment{a, b, c, d} {
		keys[x.CacheKey()] = true
	}
	assert.Len(t, keys, 4, "distinct assessments map to distinct keys")

	assert.Equal(t, "Medium|10|USA|10000|USD", a.CacheKey())
}

func TestCountryByName(t *testing.T) {
	assert.Nil(t, CountryByName("Mars"))

	profile := CountryByName("india")
	require.NotNil(t, profile)
	assert.Equal(t, "INR", profile.Currency)
	assert.Equal(t, float64(20000), profile.MinInvestmentAmount)
}
