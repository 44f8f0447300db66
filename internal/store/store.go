// Package store provides CSV-backed persistence for collected data.
package store

import (
	"time"

	"p2p-crisis-collector/internal/models"
)

// Store defines the persistence surface for the collection pipeline.
// The store is the only writer of the on-disk data tree.
type Store interface {
	// Raw advertisements
	SaveRawAds(ads []models.Advertisement, platform models.Platform, countryCode, collectionID string) (string, error)
	LoadRawAds(filter AdFilter) ([]models.Advertisement, error)

	// Collection-run bookkeeping
	GenerateCollectionID() string
	LogCollectionRun(run models.CollectionRun) error
	CollectionLog() ([]models.CollectionRun, error)

	// Exchange rates
	SaveExchangeRates(rates []models.ExchangeRate, collectionID string) error

	// Derived tables
	CreateDailySummary(date time.Time) (string, error)
	SavePremiumResults(results []models.PremiumResult) (string, error)
	SaveCountryStats(stats []models.CountryStats) (string, error)
	SaveCorrelationResults(results []models.CorrelationResult) (string, error)

	// Crisis timeline projections
	SaveTimeline(events []models.CrisisEvent) (string, error)
	SaveCountryTimeline(countryCode string, events []models.CrisisEvent) (string, error)

	// Market context
	SaveContextPrices(prices []models.ContextPrice) (string, error)
	SaveHistoricalSeries(instrument string, points []models.PricePoint) (string, error)
	LoadHistoricalSeries(instrument string) ([]models.PricePoint, error)
}

// AdFilter selects raw advertisements on load. Zero values match everything.
type AdFilter struct {
	Platform    models.Platform
	CountryCode string
	Date        string // YYYY-MM-DD
}
