package correlation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-crisis-collector/internal/models"
)

func day(s string) models.Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return models.Date{Time: t.UTC()}
}

func flatSeries(from, to string, close float64) []models.PricePoint {
	start := day(from).Time
	end := day(to).Time
	var points []models.PricePoint
	for d := start; !d.After(end); d = d.Add(24 * time.Hour) {
		points = append(points, models.PricePoint{
			Date:  models.Date{Time: d},
			Close: close,
		})
	}
	return points
}

func testEvent(date string) models.CrisisEvent {
	return models.CrisisEvent{
		Date:           day(date),
		CountryCode:    "SD",
		EventType:      "coup",
		Title:          "Military Coup",
		ImpactSeverity: 5,
	}
}

func TestCorrelateFlatStep(t *testing.T) {
	engine := NewEngine(zerolog.Nop(), 30)

	// 100 for every day before the event, 110 from the event on.
	series := append(
		flatSeries("2023-03-01", "2023-04-14", 100),
		flatSeries("2023-04-15", "2023-05-31", 110)...,
	)

	results := engine.Correlate(
		[]models.CrisisEvent{testEvent("2023-04-15")},
		map[string][]models.PricePoint{"BTC": series},
	)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "BTC", r.Instrument)
	assert.Equal(t, "Military Coup", r.EventTitle)
	assert.Equal(t, 100.0, r.PreMean)
	assert.Equal(t, 110.0, r.PostMean)
	assert.InDelta(t, 10.0, r.PriceChangePct, 1e-9)
	assert.Equal(t, 0.0, r.PreVolatility, "flat window has no volatility")
	assert.Equal(t, 0.0, r.PostVolatility)
	assert.Equal(t, 0.0, r.VolatilityChangePct, "zero pre volatility suppresses the ratio")
	assert.Equal(t, 30, r.PrePoints, "30 days strictly before the event")
	assert.Equal(t, 31, r.PostPoints, "event day plus 30 days after")
}

func TestCorrelateWindowExcludesDistantPoints(t *testing.T) {
	engine := NewEngine(zerolog.Nop(), 30)

	series := []models.PricePoint{
		{Date: day("2022-01-01"), Close: 9999},  // far before the window
		{Date: day("2023-04-10"), Close: 100},   // in window, pre
		{Date: day("2023-04-20"), Close: 120},   // in window, post
		{Date: day("2024-01-01"), Close: 12345}, // far after the window
	}

	results := engine.Correlate(
		[]models.CrisisEvent{testEvent("2023-04-15")},
		map[string][]models.PricePoint{"ETH": series},
	)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].PrePoints)
	assert.Equal(t, 1, results[0].PostPoints)
	assert.Equal(t, 100.0, results[0].PreMean)
	assert.Equal(t, 120.0, results[0].PostMean)
}

func TestCorrelateSkipsOneSidedWindows(t *testing.T) {
	engine := NewEngine(zerolog.Nop(), 30)

	// Series starts on the event day; nothing for the pre window.
	series := flatSeries("2023-04-15", "2023-04-25", 100)

	results := engine.Correlate(
		[]models.CrisisEvent{testEvent("2023-04-15")},
		map[string][]models.PricePoint{"BTC": series},
	)
	assert.Empty(t, results, "pairs with an empty side are skipped, not zeroed")
}

func TestCorrelateNormalizesUnsortedMixedZones(t *testing.T) {
	engine := NewEngine(zerolog.Nop(), 30)

	loc := time.FixedZone("UTC+5", 5*3600)
	series := []models.PricePoint{
		{Date: models.Date{Time: time.Date(2023, 4, 20, 9, 30, 0, 0, loc)}, Close: 120},
		{Date: day("2023-04-10"), Close: 100},
		{Date: models.Date{Time: time.Date(2023, 4, 12, 23, 0, 0, 0, time.UTC)}, Close: 102},
	}

	results := engine.Correlate(
		[]models.CrisisEvent{testEvent("2023-04-15")},
		map[string][]models.PricePoint{"BTC": series},
	)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].PrePoints)
	assert.Equal(t, 1, results[0].PostPoints)
	assert.Equal(t, 101.0, results[0].PreMean)
}

func TestCorrelateMultipleInstrumentsOrdered(t *testing.T) {
	engine := NewEngine(zerolog.Nop(), 30)

	series := map[string][]models.PricePoint{
		"USDT": flatSeries("2023-03-15", "2023-05-15", 1),
		"BTC":  flatSeries("2023-03-15", "2023-05-15", 30000),
		"ETH":  flatSeries("2023-03-15", "2023-05-15", 2000),
	}

	results := engine.Correlate([]models.CrisisEvent{testEvent("2023-04-15")}, series)
	require.Len(t, results, 3)
	assert.Equal(t, "BTC", results[0].Instrument)
	assert.Equal(t, "ETH", results[1].Instrument)
	assert.Equal(t, "USDT", results[2].Instrument)
}

func TestNewEngineDefaultsWindow(t *testing.T) {
	engine := NewEngine(zerolog.Nop(), 0)
	assert.Equal(t, DefaultWindowDays, engine.windowDays)
}

func TestVolatility(t *testing.T) {
	assert.Equal(t, 0.0, volatility(nil))
	assert.Equal(t, 0.0, volatility([]float64{5, 5, 5}))

	// Population stdev of {90, 110} is 10, mean 100.
	assert.InDelta(t, 10.0, volatility([]float64{90, 110}), 1e-9)
}
