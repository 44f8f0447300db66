package rates

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-crisis-collector/internal/config"
	apperrors "p2p-crisis-collector/internal/errors"
)

func TestCalculatePremium(t *testing.T) {
	cases := []struct {
		name         string
		price        float64
		officialRate float64
		baseValue    float64
		want         float64
	}{
		{"sudan-style premium", 2900, 600, 1, 383.33},
		{"at par", 600, 600, 1, 0},
		{"discount", 540, 600, 1, -10},
		{"zero rate guards division", 2900, 0, 1, 0},
		{"non-unit base", 5800, 600, 2, 383.33},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculatePremium(tc.price, tc.officialRate, tc.baseValue)
			assert.InDelta(t, tc.want, got, 0.01)
		})
	}
}

func TestCalculatePremiumRounding(t *testing.T) {
	// 1000/3 implies 333.333...% over par minus 100 => two decimals only.
	got := CalculatePremium(1000, 300, 1)
	assert.Equal(t, 233.33, got)
}

func TestSampleDatesDailyShortRange(t *testing.T) {
	start := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)

	dates := SampleDates(start, end)
	require.Len(t, dates, 31, "30-day range samples daily, inclusive endpoints")
	assert.Equal(t, start, dates[0])
	assert.Equal(t, end, dates[len(dates)-1])
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 24*time.Hour, dates[i].Sub(dates[i-1]))
	}
}

func TestSampleDatesWeeklyLongRange(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 200)

	dates := SampleDates(start, end)
	require.Len(t, dates, 29, "200-day range samples weekly")
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 7*24*time.Hour, dates[i].Sub(dates[i-1]))
	}
}

func TestSampleDatesNinetyDayBoundary(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	atBoundary := SampleDates(start, start.AddDate(0, 0, 90))
	assert.Len(t, atBoundary, 91, "exactly 90 days still samples daily")

	pastBoundary := SampleDates(start, start.AddDate(0, 0, 91))
	assert.Len(t, pastBoundary, 14, "91 days flips to weekly")
}

func TestSampleDatesReversedRange(t *testing.T) {
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, SampleDates(start, start.AddDate(0, 0, -1)))
}

func TestNewHistoricalResolverRequiresKey(t *testing.T) {
	_, err := NewHistoricalResolver(config.RatesConfig{}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMissingAPIKey)

	var cfgErr *apperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = NewHistoricalResolver(config.RatesConfig{OpenExchangeRatesKey: "k"}, zerolog.Nop())
	assert.NoError(t, err)

	_, err = NewHistoricalResolver(config.RatesConfig{FixerKey: "k"}, zerolog.Nop())
	assert.NoError(t, err)
}
