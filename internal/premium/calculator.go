// Package premium joins collected advertisements against official
// exchange rates and aggregates per-country market structure.
package premium

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
	"p2p-crisis-collector/internal/rates"
)

// Calculator derives premium figures from raw ads and a resolved rate
// table keyed by fiat code.
type Calculator struct {
	log zerolog.Logger
}

func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{log: logging.WithOperation(log, "premium")}
}

// FillAdPremiums stamps premium_pct and official_rate on each ad whose
// fiat has a resolved rate. This and collection_id are the only fields
// mutated after standardization.
func (c *Calculator) FillAdPremiums(ads []models.Advertisement, rateTable map[string]float64, baseValue float64) int {
	filled := 0
	for i := range ads {
		rate, ok := rateTable[ads[i].Fiat]
		if !ok {
			continue
		}
		p := rates.CalculatePremium(ads[i].Price, rate, baseValue)
		ads[i].PremiumPct = models.Float64(p)
		ads[i].OfficialRate = models.Float64(rate)
		filled++
	}
	return filled
}

// CountryPremiums aggregates one row per country from the given ads.
// Countries whose fiat has no resolved rate are skipped and logged.
func (c *Calculator) CountryPremiums(ads []models.Advertisement, rateTable map[string]float64) []models.PremiumResult {
	groups, order := groupByCountry(ads)

	var results []models.PremiumResult
	for _, cc := range order {
		group := groups[cc]
		fiat := group[0].Fiat

		officialRate, ok := rateTable[fiat]
		if !ok {
			c.log.Warn().Str("country", cc).Str("fiat", fiat).Msg("no official rate, skipping country")
			continue
		}

		prices := make([]float64, 0, len(group))
		buys, sells := 0, 0
		for _, ad := range group {
			prices = append(prices, ad.Price)
			switch ad.TradeType {
			case models.TradeBuy:
				buys++
			case models.TradeSell:
				sells++
			}
		}

		avgPrice := mean(prices)
		medPrice := median(prices)

		results = append(results, models.PremiumResult{
			CountryCode:   cc,
			Fiat:          fiat,
			TotalAds:      len(group),
			BuyAds:        buys,
			SellAds:       sells,
			AvgPrice:      avgPrice,
			MedianPrice:   medPrice,
			OfficialRate:  officialRate,
			PremiumAvg:    rates.CalculatePremium(avgPrice, officialRate, 1.0),
			PremiumMedian: rates.CalculatePremium(medPrice, officialRate, 1.0),
		})
	}
	return results
}

// MarketStructure aggregates per-country ad statistics with a
// sell-ratio pattern label.
func (c *Calculator) MarketStructure(ads []models.Advertisement) []models.CountryStats {
	groups, order := groupByCountry(ads)
	now := models.Now()

	var stats []models.CountryStats
	for _, cc := range order {
		group := groups[cc]

		prices := make([]float64, 0, len(group))
		traders := make(map[string]bool)
		var volume float64
		buys, sells := 0, 0
		for _, ad := range group {
			prices = append(prices, ad.Price)
			volume += ad.AvailableAmount
			if ad.AdvertiserName != "" {
				traders[ad.AdvertiserName] = true
			}
			switch ad.TradeType {
			case models.TradeBuy:
				buys++
			case models.TradeSell:
				sells++
			}
		}

		pattern, indicator := classify(sells, len(group))

		stats = append(stats, models.CountryStats{
			CountryCode:     cc,
			FiatCurrency:    group[0].Fiat,
			TotalAds:        len(group),
			BuyAds:          buys,
			SellAds:         sells,
			AvgPrice:        mean(prices),
			MedianPrice:     median(prices),
			PriceStd:        sampleStd(prices),
			MinPrice:        minOf(prices),
			MaxPrice:        maxOf(prices),
			TotalVolume:     volume,
			UniqueTraders:   len(traders),
			MarketPattern:   pattern,
			CrisisIndicator: indicator,
			AnalyzedAt:      now,
		})
	}
	return stats
}

// classify labels the buy/sell balance. A sell-heavy book reads as
// residents converting local currency out, the crisis signature.
func classify(sellAds, totalAds int) (models.MarketPattern, string) {
	if totalAds == 0 {
		return models.PatternBalanced, "low"
	}
	ratio := float64(sellAds) / float64(totalAds)
	switch {
	case ratio > 0.8:
		return models.PatternHeavySellPressure, "high"
	case ratio > 0.6:
		return models.PatternModerateSellPressure, "medium"
	case ratio < 0.3:
		return models.PatternBuyPressure, "low"
	}
	return models.PatternBalanced, "low"
}

func groupByCountry(ads []models.Advertisement) (map[string][]models.Advertisement, []string) {
	groups := make(map[string][]models.Advertisement)
	var order []string
	for _, ad := range ads {
		if _, seen := groups[ad.CountryCode]; !seen {
			order = append(order, ad.CountryCode)
		}
		groups[ad.CountryCode] = append(groups[ad.CountryCode], ad)
	}
	sort.Strings(order)
	return groups, order
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// sampleStd matches the n-1 denominator convention of the summary
// tables this feeds.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
