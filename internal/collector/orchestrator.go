// Package collector drives a full collection run: resolve rates, walk
// the platform and country grid, persist everything, summarize.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"p2p-crisis-collector/internal/config"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
	"p2p-crisis-collector/internal/platforms"
	"p2p-crisis-collector/internal/premium"
	"p2p-crisis-collector/internal/rates"
	"p2p-crisis-collector/internal/store"
)

// PlatformStats is the per-platform slice of a run summary.
type PlatformStats struct {
	Ads       int  `json:"ads"`
	Countries int  `json:"countries"`
	Succeeded bool `json:"succeeded"`
}

// Summary is the structured result of one orchestrated run. Rendering
// it for humans is the CLI layer's job.
type Summary struct {
	CollectionID       string                   `json:"collection_id"`
	StartedAt          time.Time                `json:"started_at"`
	Duration           time.Duration            `json:"duration"`
	TotalAds           int                      `json:"total_ads"`
	CountriesProcessed int                      `json:"countries_processed"`
	RatesResolved      int                      `json:"rates_resolved"`
	PlatformStats      map[string]PlatformStats `json:"platform_stats"`
	Errors             []string                 `json:"errors"`
}

// rateSource is the slice of rates.Resolver the snapshot path needs.
type rateSource interface {
	CurrentRates(ctx context.Context, base string) (map[string]float64, error)
}

// Orchestrator owns the adapters, resolver, and store for a run.
type Orchestrator struct {
	cfg      *config.Config
	profiles *config.Profiles
	store    store.Store
	resolver rateSource
	calc     *premium.Calculator
	adapters []platforms.Adapter
	log      zerolog.Logger
}

// New wires an orchestrator from configuration. The adapter set covers
// every P2P platform; context APIs are handled by their own commands.
func New(cfg *config.Config, profiles *config.Profiles, st store.Store, log zerolog.Logger) *Orchestrator {
	client := platforms.NewClient(15 * time.Second)
	return &Orchestrator{
		cfg:      cfg,
		profiles: profiles,
		store:    st,
		resolver: rates.NewResolver(cfg.Rates, log),
		calc:     premium.NewCalculator(log),
		adapters: []platforms.Adapter{
			platforms.NewBinance(client, log, cfg.Collection.MaxPagesBinance),
			platforms.NewOKX(client, log, cfg.Collection.MaxPagesOKX),
			platforms.NewLocalBitcoins(client, log),
		},
		log: logging.WithOperation(log, "collect"),
	}
}

// WithAdapters replaces the adapter set. Used by tests and by commands
// that restrict collection to one platform.
func (o *Orchestrator) WithAdapters(adapters ...platforms.Adapter) *Orchestrator {
	o.adapters = adapters
	return o
}

// WithRateSource replaces the rate resolver.
func (o *Orchestrator) WithRateSource(rs rateSource) *Orchestrator {
	o.resolver = rs
	return o
}

// CollectSnapshot runs the full grid once. Every (platform, country)
// cell is independent: a failing cell contributes an error string and
// zero ads, never a run abort.
func (o *Orchestrator) CollectSnapshot(ctx context.Context, countryCodes []string) Summary {
	start := time.Now()
	collectionID := o.store.GenerateCollectionID()

	summary := Summary{
		CollectionID:  collectionID,
		StartedAt:     start,
		PlatformStats: make(map[string]PlatformStats),
	}

	profiles := o.selectProfiles(countryCodes, &summary)

	rateTable, err := o.resolver.CurrentRates(ctx, "USD")
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("rates: %v", err))
		rateTable = map[string]float64{}
	} else {
		summary.RatesResolved = len(rateTable)
		o.persistRates(rateTable, profiles, collectionID, &summary)
	}

	for _, adapter := range o.adapters {
		platform := adapter.Platform()
		stats := PlatformStats{Succeeded: true}

		for _, profile := range profiles {
			ads, cellErr := o.collectCell(ctx, adapter, profile, rateTable, collectionID)
			if cellErr != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("%s/%s: %v", platform, profile.CountryCode, cellErr))
				stats.Succeeded = false
			}
			if len(ads) > 0 {
				stats.Ads += len(ads)
				stats.Countries++
			}
		}

		summary.PlatformStats[string(platform)] = stats
		summary.TotalAds += stats.Ads
	}

	summary.CountriesProcessed = len(profiles)
	summary.Duration = time.Since(start)

	o.log.Info().
		Int("total_ads", summary.TotalAds).
		Int("countries", summary.CountriesProcessed).
		Int("errors", len(summary.Errors)).
		Dur("duration", summary.Duration).
		Msg("snapshot complete")
	return summary
}

// collectCell is one (platform, country) unit of work: fetch,
// premium-fill, persist, log the run.
func (o *Orchestrator) collectCell(ctx context.Context, adapter platforms.Adapter, profile config.CountryProfile, rateTable map[string]float64, collectionID string) ([]models.Advertisement, error) {
	platform := adapter.Platform()

	ads, err := adapter.CollectCountry(ctx, profile, o.cfg.Collection.Asset)

	status := models.RunSuccess
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		if len(ads) > 0 {
			status = models.RunPartial
		} else {
			status = models.RunError
		}
	}

	if len(ads) > 0 {
		o.calc.FillAdPremiums(ads, rateTable, 1.0)
		if _, saveErr := o.store.SaveRawAds(ads, platform, profile.CountryCode, collectionID); saveErr != nil {
			return ads, apperrors.Wrap(saveErr, "saving ads")
		}
	}

	buys, sells := 0, 0
	for _, ad := range ads {
		if ad.TradeType == models.TradeBuy {
			buys++
		} else {
			sells++
		}
	}

	if logErr := o.store.LogCollectionRun(models.CollectionRun{
		CollectionID: collectionID,
		Timestamp:    models.Now(),
		Platform:     platform,
		CountryCode:  profile.CountryCode,
		CountryName:  profile.Name,
		FiatCurrency: profile.Fiat,
		BuyAds:       buys,
		SellAds:      sells,
		Status:       status,
		ErrorMessage: errMsg,
	}); logErr != nil {
		o.log.Error().Err(logErr).Msg("collection log write failed")
	}

	return ads, err
}

// persistRates saves the subset of the table covering the selected
// fiats.
func (o *Orchestrator) persistRates(rateTable map[string]float64, profiles []config.CountryProfile, collectionID string, summary *Summary) {
	now := models.Now()
	var records []models.ExchangeRate
	for _, p := range profiles {
		rate, ok := rateTable[p.Fiat]
		if !ok {
			continue
		}
		records = append(records, models.ExchangeRate{
			Timestamp:    now,
			FiatCurrency: p.Fiat,
			USDRate:      rate,
			Source:       "api_composite",
			CollectionID: collectionID,
		})
	}
	if len(records) == 0 {
		return
	}
	if err := o.store.SaveExchangeRates(records, collectionID); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("saving rates: %v", err))
	}
}

func (o *Orchestrator) selectProfiles(countryCodes []string, summary *Summary) []config.CountryProfile {
	if len(countryCodes) == 0 {
		return o.profiles.List()
	}
	var selected []config.CountryProfile
	for _, code := range countryCodes {
		profile, err := o.profiles.ByCode(code)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("profile %s: %v", code, err))
			continue
		}
		selected = append(selected, profile)
	}
	return selected
}

// CollectCrisisPeriod gathers the rate history for a window plus a
// current-baseline P2P snapshot for one country. Historical order
// books are not replayable, so the snapshot is the market baseline the
// window's rates get compared against.
func (o *Orchestrator) CollectCrisisPeriod(ctx context.Context, countryCode string, from, to time.Time) (Summary, error) {
	profile, err := o.profiles.ByCode(countryCode)
	if err != nil {
		return Summary{}, err
	}

	resolver, err := rates.NewHistoricalResolver(o.cfg.Rates, o.log)
	if err != nil {
		return Summary{}, err
	}

	summary := o.CollectSnapshot(ctx, []string{profile.CountryCode})

	records, err := resolver.CollectCrisisPeriodRates(ctx, profile, from, to)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("crisis rates: %v", err))
		return summary, nil
	}
	summary.RatesResolved += len(records)

	if err := o.store.SaveExchangeRates(records, summary.CollectionID); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("saving crisis rates: %v", err))
	}
	return summary, nil
}
