// Package models defines data structures for the advisor service
package models

import (
	"fmt"
	"strings"
)

// RiskTolerance is the user's self-reported risk appetite.
type RiskTolerance string

const (
	RiskToleranceLow    RiskTolerance = "Low"
	RiskToleranceMedium RiskTolerance = "Medium"
	RiskToleranceHigh   RiskTolerance = "High"
)

// Valid reports whether the tolerance is one of the known levels.
func (r RiskTolerance) Valid() bool {
	switch r {
	case RiskToleranceLow, RiskToleranceMedium, RiskToleranceHigh:
		return true
	}
	return false
}

// CountryProfile describes a supported investment jurisdiction.
type CountryProfile struct {
	Country             string  `json:"country"`
	Currency            string  `json:"currency"`
	Symbol              string  `json:"symbol"`
	MinInvestmentAmount float64 `json:"minInvestmentAmount"`
	MaxInvestmentAmount float64 `json:"maxInvestmentAmount,omitempty"`
}

// SupportedCountries is the closed set of jurisdictions the assessment form
// accepts. Currency is derived from country; amounts are bounded per country.
var SupportedCountries = []CountryProfile{
	{Country: "USA", Currency: "USD", Symbol: "$", MinInvestmentAmount: 1000, MaxInvestmentAmount: 10000000},
	{Country: "EU", Currency: "EUR", Symbol: "€", MinInvestmentAmount: 1000, MaxInvestmentAmount: 10000000},
	{Country: "Canada", Currency: "CAD", Symbol: "C$", MinInvestmentAmount: 1000, MaxInvestmentAmount: 10000000},
	{Country: "India", Currency: "INR", Symbol: "₹", MinInvestmentAmount: 20000, MaxInvestmentAmount: 100000000},
}

// CountryByName returns the profile for a country, or nil if unsupported.
func CountryByName(country string) *CountryProfile {
	for i := range SupportedCountries {
		if strings.EqualFold(SupportedCountries[i].Country, country) {
			return &SupportedCountries[i]
		}
	}
	return nil
}

const (
	MinInvestmentHorizonYears = 1
	MaxInvestmentHorizonYears = 30
)

// RiskAssessment is the validated multi-step form submission. Immutable once
// submitted; the value tuple is the cache key domain.
type RiskAssessment struct {
	RiskTolerance          RiskTolerance `json:"riskTolerance"`
	InvestmentHorizonYears int           `json:"investmentHorizonYears"`
	Country                string        `json:"country"`
	InvestmentAmount       float64       `json:"investmentAmount"`
	Currency               string        `json:"currency,omitempty"`
}

// Validate checks the assessment against per-country rules. On success the
// Currency field is populated from the country profile when absent.
func (a *RiskAssessment) Validate() error {
	if !a.RiskTolerance.Valid() {
		return fmt.Errorf("riskTolerance must be one of Low, Medium, High, got %q", a.RiskTolerance)
	}

	if a.InvestmentHorizonYears < MinInvestmentHorizonYears || a.InvestmentHorizonYears > MaxInvestmentHorizonYears {
		return fmt.Errorf("investmentHorizonYears must be between %d and %d, got %d",
			MinInvestmentHorizonYears, MaxInvestmentHorizonYears, a.InvestmentHorizonYears)
	}

	profile := CountryByName(a.Country)
	if profile == nil {
		return fmt.Errorf("country %q is not supported", a.Country)
	}
	a.Country = profile.Country

	if a.InvestmentAmount <= 0 {
		return fmt.Errorf("investmentAmount must be positive")
	}
	if remainder := int64(a.InvestmentAmount) % 100; remainder != 0 || a.InvestmentAmount != float64(int64(a.InvestmentAmount)) {
		return fmt.Errorf("investmentAmount must be a multiple of 100")
	}
	if a.InvestmentAmount < profile.MinInvestmentAmount {
		return fmt.Errorf("investmentAmount %.0f is below the minimum of %.0f for %s",
			a.InvestmentAmount, profile.MinInvestmentAmount, profile.Country)
	}
	if profile.MaxInvestmentAmount > 0 && a.InvestmentAmount > profile.MaxInvestmentAmount {
		return fmt.Errorf("investmentAmount %.0f exceeds the maximum of %.0f for %s",
			a.InvestmentAmount, profile.MaxInvestmentAmount, profile.Country)
	}

	if a.Currency == "" {
		a.Currency = profile.Currency
	} else if !strings.EqualFold(a.Currency, profile.Currency) {
		return fmt.Errorf("currency %q does not match %s (%s)", a.Currency, profile.Country, profile.Currency)
	}
	a.Currency = profile.Currency

	return nil
}

// CacheKey derives the portfolio cache key from the assessment value tuple.
// The fixed delimiter keeps the key injective over the finite input domain.
func (a *RiskAssessment) CacheKey() string {
	return fmt.Sprintf("%s|%d|%s|%.0f|%s",
		a.RiskTolerance, a.InvestmentHorizonYears, a.Country, a.InvestmentAmount, a.Currency)
}
