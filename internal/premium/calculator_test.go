package premium

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-crisis-collector/internal/models"
)

func ad(cc, fiat string, side models.TradeType, price float64) models.Advertisement {
	return models.Advertisement{
		Platform:        models.PlatformBinance,
		Asset:           "USDT",
		Fiat:            fiat,
		Price:           price,
		AvailableAmount: 100,
		TradeType:       side,
		CountryCode:     cc,
		AdvertiserName:  "trader_" + cc,
	}
}

func TestFillAdPremiums(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	ads := []models.Advertisement{
		ad("SD", "SDG", models.TradeBuy, 720),
		ad("VE", "VES", models.TradeSell, 40),
		ad("XX", "XXX", models.TradeBuy, 1),
	}
	rateTable := map[string]float64{"SDG": 600, "VES": 36}

	filled := calc.FillAdPremiums(ads, rateTable, 1.0)
	assert.Equal(t, 2, filled)

	require.True(t, ads[0].PremiumPct.Valid)
	assert.Equal(t, 20.0, ads[0].PremiumPct.Float64)
	assert.Equal(t, models.Float64(600), ads[0].OfficialRate)

	require.True(t, ads[1].PremiumPct.Valid)
	assert.InDelta(t, 11.11, ads[1].PremiumPct.Float64, 1e-9)

	assert.False(t, ads[2].PremiumPct.Valid, "fiat without a rate stays unfilled")
	assert.False(t, ads[2].OfficialRate.Valid)
}

func TestFillAdPremiumsZeroIsSet(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	ads := []models.Advertisement{
		ad("SD", "SDG", models.TradeBuy, 600),
		ad("SD", "SDG", models.TradeBuy, 720),
	}
	calc.FillAdPremiums(ads, map[string]float64{"SDG": 600}, 1.0)

	require.True(t, ads[0].PremiumPct.Valid, "an at-par ad carries a real zero premium")
	assert.Equal(t, 0.0, ads[0].PremiumPct.Float64)
	assert.Equal(t, 20.0, ads[1].PremiumPct.Float64)
}

func TestCountryPremiums(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	ads := []models.Advertisement{
		ad("SD", "SDG", models.TradeBuy, 600),
		ad("SD", "SDG", models.TradeBuy, 660),
		ad("SD", "SDG", models.TradeSell, 720),
		ad("XX", "XXX", models.TradeBuy, 5),
	}
	rateTable := map[string]float64{"SDG": 600}

	results := calc.CountryPremiums(ads, rateTable)
	require.Len(t, results, 1, "country without a rate is skipped")

	r := results[0]
	assert.Equal(t, "SD", r.CountryCode)
	assert.Equal(t, "SDG", r.Fiat)
	assert.Equal(t, 3, r.TotalAds)
	assert.Equal(t, 2, r.BuyAds)
	assert.Equal(t, 1, r.SellAds)
	assert.Equal(t, 660.0, r.AvgPrice)
	assert.Equal(t, 660.0, r.MedianPrice)
	assert.Equal(t, 600.0, r.OfficialRate)
	assert.Equal(t, 10.0, r.PremiumAvg)
	assert.Equal(t, 10.0, r.PremiumMedian)
}

func TestCountryPremiumsSortedByCountry(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	ads := []models.Advertisement{
		ad("ZW", "ZWL", models.TradeBuy, 10),
		ad("AR", "ARS", models.TradeBuy, 10),
		ad("NG", "NGN", models.TradeBuy, 10),
	}
	rateTable := map[string]float64{"ZWL": 10, "ARS": 10, "NGN": 10}

	results := calc.CountryPremiums(ads, rateTable)
	require.Len(t, results, 3)
	assert.Equal(t, "AR", results[0].CountryCode)
	assert.Equal(t, "NG", results[1].CountryCode)
	assert.Equal(t, "ZW", results[2].CountryCode)
}

func TestMarketStructure(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	ads := []models.Advertisement{
		ad("SD", "SDG", models.TradeSell, 600),
		ad("SD", "SDG", models.TradeSell, 700),
		ad("SD", "SDG", models.TradeSell, 800),
		ad("SD", "SDG", models.TradeBuy, 650),
	}
	ads[1].AdvertiserName = "other_trader"

	stats := calc.MarketStructure(ads)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, 4, s.TotalAds)
	assert.Equal(t, 1, s.BuyAds)
	assert.Equal(t, 3, s.SellAds)
	assert.Equal(t, 687.5, s.AvgPrice)
	assert.Equal(t, 675.0, s.MedianPrice)
	assert.Equal(t, 600.0, s.MinPrice)
	assert.Equal(t, 800.0, s.MaxPrice)
	assert.Equal(t, 400.0, s.TotalVolume)
	assert.Equal(t, 2, s.UniqueTraders)
	assert.Equal(t, models.PatternModerateSellPressure, s.MarketPattern)
	assert.Equal(t, "medium", s.CrisisIndicator)
	assert.False(t, s.AnalyzedAt.IsZero())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		sells     int
		total     int
		pattern   models.MarketPattern
		indicator string
	}{
		{"heavy sell", 81, 100, models.PatternHeavySellPressure, "high"},
		{"exactly 0.8 is not heavy", 80, 100, models.PatternModerateSellPressure, "medium"},
		{"moderate sell", 70, 100, models.PatternModerateSellPressure, "medium"},
		{"exactly 0.6 is balanced", 60, 100, models.PatternBalanced, "low"},
		{"balanced", 50, 100, models.PatternBalanced, "low"},
		{"exactly 0.3 is balanced", 30, 100, models.PatternBalanced, "low"},
		{"buy pressure", 20, 100, models.PatternBuyPressure, "low"},
		{"empty book", 0, 0, models.PatternBalanced, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, indicator := classify(tt.sells, tt.total)
			assert.Equal(t, tt.pattern, pattern)
			assert.Equal(t, tt.indicator, indicator)
		})
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 7.0, median([]float64{7}))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}

func TestSampleStd(t *testing.T) {
	assert.Equal(t, 0.0, sampleStd([]float64{5}))
	// Sample stdev of {2, 4, 4, 4, 5, 5, 7, 9} with n-1 is ~2.138.
	assert.InDelta(t, 2.138, sampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.001)
}
