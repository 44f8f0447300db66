// Package rates resolves official fiat exchange rates and derives
// P2P price premiums against them.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"p2p-crisis-collector/internal/config"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
	"p2p-crisis-collector/pkg/utils"
)

const (
	exchangerateAPIURL        = "https://api.exchangerate-api.com/v4/latest/%s"
	openExchangeLatestURL     = "https://openexchangerates.org/api/latest.json"
	openExchangeHistoricalURL = "https://openexchangerates.org/api/historical/%s.json"
	fixerLatestURL            = "http://data.fixer.io/api/latest"
	fixerHistoricalURL        = "http://data.fixer.io/api/%s"

	requestTimeout = 10 * time.Second

	// Sampling cadence for crisis windows: daily up to this range,
	// weekly above it.
	dailySamplingMaxDays = 90
)

// Resolver queries free rate APIs with a fixed fallback order. The
// first source answering with a non-empty map wins; sources are never
// merged so one table always has one provenance.
type Resolver struct {
	http            *http.Client
	openExchangeKey string
	fixerKey        string
	log             zerolog.Logger
}

// NewResolver builds a resolver for current-rate collection. Keys may
// be empty; keyless sources still serve the chain.
func NewResolver(cfg config.RatesConfig, log zerolog.Logger) *Resolver {
	return &Resolver{
		http:            &http.Client{Timeout: requestTimeout},
		openExchangeKey: cfg.OpenExchangeRatesKey,
		fixerKey:        cfg.FixerKey,
		log:             logging.WithOperation(log, "rates"),
	}
}

// NewHistoricalResolver is NewResolver plus the requirement that at
// least one historical-capable source has an API key. Historical
// collection without a key cannot work, so it fails at construction
// rather than producing silently empty windows.
func NewHistoricalResolver(cfg config.RatesConfig, log zerolog.Logger) (*Resolver, error) {
	if cfg.OpenExchangeRatesKey == "" && cfg.FixerKey == "" {
		return nil, apperrors.NewConfigError("rates",
			"historical rate collection requires OPENEXCHANGERATES_API_KEY or FIXER_API_KEY",
			apperrors.ErrMissingAPIKey)
	}
	return NewResolver(cfg, log), nil
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// CurrentRates resolves the current rate table for base. Fallback
// order: exchangerate-api, openexchangerates, fixer.
func (r *Resolver) CurrentRates(ctx context.Context, base string) (map[string]float64, error) {
	if base == "" {
		base = "USD"
	}

	sources := []struct {
		name  string
		fetch func(context.Context, string) (map[string]float64, error)
	}{
		{"exchangerate-api", r.fromExchangerateAPI},
		{"openexchangerates", r.fromOpenExchange},
		{"fixer", r.fromFixer},
	}

	for _, src := range sources {
		rates, err := src.fetch(ctx, base)
		if err != nil {
			r.log.Warn().Err(err).Str("source", src.name).Msg("rate source failed")
			continue
		}
		if len(rates) > 0 {
			r.log.Info().Str("source", src.name).Int("currencies", len(rates)).Msg("rates resolved")
			return rates, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrRateUnavailable, "all current-rate sources failed")
}

// HistoricalRates resolves the rate table for one past date. Only the
// keyed sources carry history.
func (r *Resolver) HistoricalRates(ctx context.Context, date time.Time, base string) (map[string]float64, error) {
	dateStr := date.UTC().Format("2006-01-02")

	if r.openExchangeKey != "" {
		rates, err := r.getRates(ctx, fmt.Sprintf(openExchangeHistoricalURL, dateStr),
			url.Values{"app_id": {r.openExchangeKey}})
		if err == nil && len(rates) > 0 {
			return rates, nil
		}
		if err != nil {
			r.log.Warn().Err(err).Str("date", dateStr).Msg("openexchangerates historical failed")
		}
	}

	if r.fixerKey != "" {
		rates, err := r.getRates(ctx, fmt.Sprintf(fixerHistoricalURL, dateStr),
			url.Values{"access_key": {r.fixerKey}})
		if err == nil && len(rates) > 0 {
			return rates, nil
		}
		if err != nil {
			r.log.Warn().Err(err).Str("date", dateStr).Msg("fixer historical failed")
		}
	}

	return nil, apperrors.Wrapf(apperrors.ErrRateUnavailable, "no historical rates for %s", dateStr)
}

func (r *Resolver) fromExchangerateAPI(ctx context.Context, base string) (map[string]float64, error) {
	return r.getRates(ctx, fmt.Sprintf(exchangerateAPIURL, base), nil)
}

func (r *Resolver) fromOpenExchange(ctx context.Context, base string) (map[string]float64, error) {
	if r.openExchangeKey == "" {
		return nil, nil
	}
	return r.getRates(ctx, openExchangeLatestURL, url.Values{"app_id": {r.openExchangeKey}})
}

func (r *Resolver) fromFixer(ctx context.Context, base string) (map[string]float64, error) {
	params := url.Values{}
	if r.fixerKey != "" {
		params.Set("access_key", r.fixerKey)
	}
	return r.getRates(ctx, fixerLatestURL, params)
}

// getRates retries transient failures before giving a source up.
func (r *Resolver) getRates(ctx context.Context, rawURL string, params url.Values) (map[string]float64, error) {
	return utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (map[string]float64, error) {
		return r.fetchRates(ctx, rawURL, params)
	})
}

func (r *Resolver) fetchRates(ctx context.Context, rawURL string, params url.Values) (map[string]float64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperrors.NewTransportError("rates", rawURL, err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperrors.NewTransportError("rates", rawURL, err)
	}
	req.Header.Set("User-Agent", "CryptoAnalysis/1.0 (Research Project)")
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError("rates", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewTransportError("rates", rawURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewParseError("rates", "decoding rate table", err)
	}
	return body.Rates, nil
}

// CalculatePremium is the premium of a local P2P price over the
// official rate, as a percentage of the asset's base USD value,
// rounded to two decimals. A zero official rate yields zero rather
// than a division blowup.
func CalculatePremium(cryptoPrice, officialRate, baseValue float64) float64 {
	if officialRate == 0 {
		return 0.0
	}
	impliedUSD := cryptoPrice / officialRate
	premium := ((impliedUSD - baseValue) / baseValue) * 100
	return math.Round(premium*100) / 100
}

// SampleDates returns the observation dates for a crisis window:
// daily when the range spans at most 90 days, weekly above that. Both
// endpoints are inclusive; the last sample may land short of end.
func SampleDates(start, end time.Time) []time.Time {
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)
	if end.Before(start) {
		return nil
	}

	step := 24 * time.Hour
	if end.Sub(start) > dailySamplingMaxDays*24*time.Hour {
		step = 7 * 24 * time.Hour
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.Add(step) {
		dates = append(dates, d)
	}
	return dates
}

// CollectCrisisPeriodRates samples the window for one country's fiat.
// Today's sample uses the current table, past dates the historical
// one. Dates with no rate for the fiat are skipped, not errors.
func (r *Resolver) CollectCrisisPeriodRates(ctx context.Context, profile config.CountryProfile, start, end time.Time) ([]models.ExchangeRate, error) {
	fiat := profile.Fiat
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var records []models.ExchangeRate
	for _, date := range SampleDates(start, end) {
		var (
			table map[string]float64
			err   error
		)
		if date.Equal(today) {
			table, err = r.CurrentRates(ctx, "USD")
		} else {
			table, err = r.HistoricalRates(ctx, date, "USD")
		}
		if err != nil {
			r.log.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("no rates for date")
			continue
		}

		rate, ok := table[fiat]
		if !ok {
			r.log.Warn().Str("fiat", fiat).Str("date", date.Format("2006-01-02")).Msg("fiat missing from table")
			continue
		}

		records = append(records, models.ExchangeRate{
			Timestamp:    models.DateTime{Time: date.Add(12 * time.Hour)},
			FiatCurrency: fiat,
			USDRate:      rate,
			Source:       "api_composite",
		})
		logging.LogRate(r.log, fiat, rate, "api_composite")
	}

	if len(records) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNoData, "no rates resolved for %s over window", fiat)
	}
	return records, nil
}
