// Package universe holds the closed per-country instrument catalogs the
// synthesizer selects from.
package universe

import (
	"fmt"
	"strings"
)

// Instrument is one entry in a country's investable universe. BaseReturn is
// the unadjusted expected annual return in percent.
type Instrument struct {
	Symbol      string
	CompanyName string
	Sector      string
	BaseReturn  float64
}

// Sector names used by the risk filter.
const (
	SectorTechnology            = "Technology"
	SectorHealthcare            = "Healthcare"
	SectorConsumerGoods         = "Consumer Goods"
	SectorConsumerDiscretionary = "Consumer Discretionary"
	SectorFinancialServices     = "Financial Services"
	SectorAutomotive            = "Automotive"
	SectorEnergy                = "Energy"
	SectorIndustrials           = "Industrials"
	SectorTelecommunications    = "Telecommunications"
)

// DefaultCountry is used when an unknown country reaches the synthesizer.
const DefaultCountry = "USA"

var catalogs = map[string][]Instrument{
	"USA": {
		{Symbol: "JNJ", CompanyName: "Johnson & Johnson", Sector: SectorHealthcare, BaseReturn: 7.8},
		{Symbol: "PG", CompanyName: "Procter & Gamble", Sector: SectorConsumerGoods, BaseReturn: 8.2},
		{Symbol: "KO", CompanyName: "Coca-Cola", Sector: SectorConsumerGoods, BaseReturn: 7.9},
		{Symbol: "JPM", CompanyName: "JPMorgan Chase", Sector: SectorFinancialServices, BaseReturn: 9.6},
		{Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: SectorTechnology, BaseReturn: 12.5},
		{Symbol: "MSFT", CompanyName: "Microsoft", Sector: SectorTechnology, BaseReturn: 11.8},
		{Symbol: "AMZN", CompanyName: "Amazon", Sector: SectorConsumerDiscretionary, BaseReturn: 14.1},
		{Symbol: "NVDA", CompanyName: "NVIDIA", Sector: SectorTechnology, BaseReturn: 18.5},
	},
	"EU": {
		{Symbol: "ASML", CompanyName: "ASML Holding", Sector: SectorTechnology, BaseReturn: 13.2},
		{Symbol: "SAP", CompanyName: "SAP SE", Sector: SectorTechnology, BaseReturn: 10.9},
		{Symbol: "NESN", CompanyName: "Nestlé", Sector: SectorConsumerGoods, BaseReturn: 7.9},
		{Symbol: "SAN", CompanyName: "Sanofi", Sector: SectorHealthcare, BaseReturn: 8.1},
		{Symbol: "MC", CompanyName: "LVMH", Sector: SectorConsumerDiscretionary, BaseReturn: 12.4},
		{Symbol: "SIE", CompanyName: "Siemens", Sector: SectorIndustrials, BaseReturn: 9.8},
	},
	"Canada": {
		{Symbol: "RY", CompanyName: "Royal Bank of Canada", Sector: SectorFinancialServices, BaseReturn: 9.1},
		{Symbol: "TD", CompanyName: "Toronto-Dominion Bank", Sector: SectorFinancialServices, BaseReturn: 8.7},
		{Symbol: "ENB", CompanyName: "Enbridge", Sector: SectorEnergy, BaseReturn: 8.4},
		{Symbol: "SHOP", CompanyName: "Shopify", Sector: SectorTechnology, BaseReturn: 16.8},
		{Symbol: "CNR", CompanyName: "Canadian National Railway", Sector: SectorIndustrials, BaseReturn: 9.4},
		{Symbol: "BCE", CompanyName: "BCE Inc.", Sector: SectorTelecommunications, BaseReturn: 7.8},
	},
	"India": {
		{Symbol: "RELIANCE", CompanyName: "Reliance Industries", Sector: SectorEnergy, BaseReturn: 13.5},
		{Symbol: "TCS", CompanyName: "Tata Consultancy Services", Sector: SectorTechnology, BaseReturn: 12.8},
		{Symbol: "HDFCBANK", CompanyName: "HDFC Bank", Sector: SectorFinancialServices, BaseReturn: 13.9},
		{Symbol: "INFY", CompanyName: "Infosys", Sector: SectorTechnology, BaseReturn: 12.1},
		{Symbol: "HINDUNILVR", CompanyName: "Hindustan Unilever", Sector: SectorConsumerGoods, BaseReturn: 9.8},
		{Symbol: "TATAMOTORS", CompanyName: "Tata Motors", Sector: SectorAutomotive, BaseReturn: 16.4},
		{Symbol: "SUNPHARMA", CompanyName: "Sun Pharmaceutical", Sector: SectorHealthcare, BaseReturn: 10.9},
	},
}

// ForCountry returns the instrument list for a country, falling back to the
// USA catalog for unknown countries. The returned slice is a copy.
func ForCountry(country string) []Instrument {
	list, ok := catalogs[canonical(country)]
	if !ok {
		list = catalogs[DefaultCountry]
	}
	out := make([]Instrument, len(list))
	copy(out, list)
	return out
}

// Countries returns the catalog country names.
func Countries() []string {
	names := make([]string, 0, len(catalogs))
	for name := range catalogs {
		names = append(names, name)
	}
	return names
}

func canonical(country string) string {
	for name := range catalogs {
		if strings.EqualFold(name, country) {
			return name
		}
	}
	return country
}

// Validate checks catalog integrity at startup: 4–8 instruments per country,
// unique symbols, positive base returns, named sectors.
func Validate() error {
	for country, list := range catalogs {
		if len(list) < 4 || len(list) > 8 {
			return fmt.Errorf("catalog for %s has %d instruments, want 4-8", country, len(list))
		}
		seen := make(map[string]bool, len(list))
		for _, inst := range list {
			if inst.Symbol == "" || inst.CompanyName == "" || inst.Sector == "" {
				return fmt.Errorf("catalog for %s has an incomplete instrument: %+v", country, inst)
			}
			if inst.BaseReturn <= 0 {
				return fmt.Errorf("catalog for %s: %s has non-positive base return %.1f", country, inst.Symbol, inst.BaseReturn)
			}
			if seen[inst.Symbol] {
				return fmt.Errorf("catalog for %s has duplicate symbol %s", country, inst.Symbol)
			}
			seen[inst.Symbol] = true
		}
	}
	return nil
}
