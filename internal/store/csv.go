package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/models"
)

// CSVStore persists all pipeline tables as CSV files under a base
// directory. Raw ad files are write-once per (date, platform, country)
// with last-writer-wins semantics; the collection log and rate files
// are append-only.
type CSVStore struct {
	baseDir string
}

// NewCSVStore creates the directory tree and returns a store rooted at baseDir.
func NewCSVStore(baseDir string) (*CSVStore, error) {
	s := &CSVStore{baseDir: baseDir}

	dirs := []string{
		s.rawDir(),
		filepath.Join(s.processedDir(), "daily_summaries"),
		filepath.Join(s.processedDir(), "premium_calculations"),
		filepath.Join(s.processedDir(), "country_aggregates"),
		s.ratesDir(),
		s.metadataDir(),
		filepath.Join(s.analysisDir(), "crisis_correlations"),
		filepath.Join(s.analysisDir(), "market_context"),
		filepath.Join(s.analysisDir(), "historical"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.Wrapf(err, "creating %s", dir)
		}
	}
	return s, nil
}

// BaseDir returns the store's root directory.
func (s *CSVStore) BaseDir() string { return s.baseDir }

func (s *CSVStore) rawDir() string       { return filepath.Join(s.baseDir, "raw") }
func (s *CSVStore) processedDir() string { return filepath.Join(s.baseDir, "processed") }
func (s *CSVStore) ratesDir() string     { return filepath.Join(s.baseDir, "exchange_rates") }
func (s *CSVStore) metadataDir() string  { return filepath.Join(s.baseDir, "metadata") }
func (s *CSVStore) analysisDir() string  { return filepath.Join(s.baseDir, "analysis") }

// GenerateCollectionID returns a unique identifier for one collection run.
func (s *CSVStore) GenerateCollectionID() string {
	return fmt.Sprintf("collection_%s_%s",
		time.Now().UTC().Format("20060102_150405"),
		uuid.NewString()[:8])
}

// SaveRawAds writes one date-partitioned raw ad file and stamps each
// record with the collection ID. A second save for the same
// (date, platform, country) overwrites the previous file.
func (s *CSVStore) SaveRawAds(ads []models.Advertisement, platform models.Platform, countryCode, collectionID string) (string, error) {
	if collectionID == "" {
		collectionID = s.GenerateCollectionID()
	}
	for i := range ads {
		ads[i].CollectionID = collectionID
	}

	today := time.Now().UTC().Format("2006-01-02")
	dateDir := filepath.Join(s.rawDir(), today)
	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", apperrors.Wrapf(err, "creating %s", dateDir)
	}

	path := filepath.Join(dateDir, fmt.Sprintf("%s_p2p_%s_%s.csv", platform, countryCode, today))
	if err := writeCSV(path, &ads); err != nil {
		return "", apperrors.Wrapf(err, "saving raw ads to %s", path)
	}
	return path, nil
}

// LoadRawAds reads raw ad files matching the filter, newest directory
// ordering left to the sorted directory listing for determinism.
func (s *CSVStore) LoadRawAds(filter AdFilter) ([]models.Advertisement, error) {
	var searchDirs []string
	if filter.Date != "" {
		dateDir := filepath.Join(s.rawDir(), filter.Date)
		if _, err := os.Stat(dateDir); os.IsNotExist(err) {
			return nil, nil
		}
		searchDirs = []string{dateDir}
	} else {
		entries, err := os.ReadDir(s.rawDir())
		if err != nil {
			return nil, apperrors.Wrap(err, "listing raw data dirs")
		}
		for _, e := range entries {
			if e.IsDir() {
				searchDirs = append(searchDirs, filepath.Join(s.rawDir(), e.Name()))
			}
		}
	}

	var all []models.Advertisement
	for _, dir := range searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, apperrors.Wrapf(err, "listing %s", dir)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
				continue
			}
			if !matchesFilter(e.Name(), filter) {
				continue
			}
			var ads []models.Advertisement
			if err := readCSV(filepath.Join(dir, e.Name()), &ads); err != nil {
				return nil, apperrors.Wrapf(err, "reading %s", e.Name())
			}
			all = append(all, ads...)
		}
	}
	return all, nil
}

// matchesFilter applies platform/country filters from the
// <platform>_p2p_<CC>_<date>.csv naming convention.
func matchesFilter(filename string, filter AdFilter) bool {
	stem := strings.TrimSuffix(filename, ".csv")
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return false
	}
	if filter.Platform != "" && parts[0] != string(filter.Platform) {
		return false
	}
	if filter.CountryCode != "" && parts[2] != filter.CountryCode {
		return false
	}
	return true
}

// LogCollectionRun appends one row to the collection log. The writer
// maintains ads_collected = buy_ads + sell_ads.
func (s *CSVStore) LogCollectionRun(run models.CollectionRun) error {
	run.AdsCollected = run.BuyAds + run.SellAds
	if run.CollectionID == "" {
		run.CollectionID = s.GenerateCollectionID()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = models.Now()
	}
	path := filepath.Join(s.metadataDir(), "collection_log.csv")
	rows := []models.CollectionRun{run}
	return appendCSV(path, &rows)
}

// CollectionLog reads the full collection history.
func (s *CSVStore) CollectionLog() ([]models.CollectionRun, error) {
	path := filepath.Join(s.metadataDir(), "collection_log.csv")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	var runs []models.CollectionRun
	if err := readCSV(path, &runs); err != nil {
		return nil, apperrors.Wrap(err, "reading collection log")
	}
	return runs, nil
}

// SaveExchangeRates appends rate observations to today's rate file.
func (s *CSVStore) SaveExchangeRates(rates []models.ExchangeRate, collectionID string) error {
	if len(rates) == 0 {
		return nil
	}
	if collectionID == "" {
		collectionID = s.GenerateCollectionID()
	}
	for i := range rates {
		if rates[i].CollectionID == "" {
			rates[i].CollectionID = collectionID
		}
	}
	today := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(s.ratesDir(), fmt.Sprintf("rates_%s.csv", today))
	return appendCSV(path, &rates)
}

type summaryKey struct {
	platform models.Platform
	country  string
	fiat     string
}

// CreateDailySummary aggregates one day of raw ads per
// (platform, country, fiat) and writes the summary file.
func (s *CSVStore) CreateDailySummary(date time.Time) (string, error) {
	dateStr := date.UTC().Format("2006-01-02")
	ads, err := s.LoadRawAds(AdFilter{Date: dateStr})
	if err != nil {
		return "", err
	}
	if len(ads) == 0 {
		return "", apperrors.Wrapf(apperrors.ErrNoData, "no ads for %s", dateStr)
	}

	groups := make(map[summaryKey][]models.Advertisement)
	var order []summaryKey
	for _, ad := range ads {
		key := summaryKey{ad.Platform, ad.CountryCode, ad.Fiat}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ad)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.platform != b.platform {
			return a.platform < b.platform
		}
		if a.country != b.country {
			return a.country < b.country
		}
		return a.fiat < b.fiat
	})

	summaries := make([]models.DailySummary, 0, len(order))
	for _, key := range order {
		group := groups[key]
		summaries = append(summaries, summarize(dateStr, key, group))
	}

	path := filepath.Join(s.processedDir(), "daily_summaries", fmt.Sprintf("summary_%s.csv", dateStr))
	if err := writeCSV(path, &summaries); err != nil {
		return "", apperrors.Wrap(err, "writing daily summary")
	}
	return path, nil
}

func summarize(dateStr string, key summaryKey, group []models.Advertisement) models.DailySummary {
	var (
		buyPrices, sellPrices []float64
		liquidity             float64
		premiumSum            float64
		premiumCount          int
	)
	for _, ad := range group {
		switch ad.TradeType {
		case models.TradeBuy:
			buyPrices = append(buyPrices, ad.Price)
		case models.TradeSell:
			sellPrices = append(sellPrices, ad.Price)
		}
		liquidity += ad.AvailableAmount
		if ad.PremiumPct.Valid {
			premiumSum += ad.PremiumPct.Float64
			premiumCount++
		}
	}

	avgBuy := mean(buyPrices)
	avgSell := mean(sellPrices)
	spread := 0.0
	if len(buyPrices) > 0 && len(sellPrices) > 0 {
		spread = avgSell - avgBuy
	}
	avgPremium := 0.0
	if premiumCount > 0 {
		avgPremium = premiumSum / float64(premiumCount)
	}

	day, _ := time.Parse("2006-01-02", dateStr)
	return models.DailySummary{
		Date:           models.Date{Time: day.UTC()},
		Platform:       key.platform,
		CountryCode:    key.country,
		FiatCurrency:   key.fiat,
		TotalAds:       len(group),
		BuyAds:         len(buyPrices),
		SellAds:        len(sellPrices),
		AvgBuyPrice:    avgBuy,
		AvgSellPrice:   avgSell,
		PriceSpread:    spread,
		TotalLiquidity: liquidity,
		AvgPremium:     avgPremium,
	}
}

// SavePremiumResults writes one premium analysis file.
func (s *CSVStore) SavePremiumResults(results []models.PremiumResult) (string, error) {
	ts := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(s.processedDir(), "premium_calculations", fmt.Sprintf("premium_analysis_%s.csv", ts))
	if err := writeCSV(path, &results); err != nil {
		return "", apperrors.Wrap(err, "writing premium results")
	}
	return path, nil
}

// SaveCountryStats writes one market-structure aggregate file.
func (s *CSVStore) SaveCountryStats(stats []models.CountryStats) (string, error) {
	ts := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(s.processedDir(), "country_aggregates", fmt.Sprintf("market_structure_%s.csv", ts))
	if err := writeCSV(path, &stats); err != nil {
		return "", apperrors.Wrap(err, "writing country aggregates")
	}
	return path, nil
}

// SaveCorrelationResults writes one crisis-correlation file.
func (s *CSVStore) SaveCorrelationResults(results []models.CorrelationResult) (string, error) {
	ts := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(s.analysisDir(), "crisis_correlations", fmt.Sprintf("historical_correlation_%s.csv", ts))
	if err := writeCSV(path, &results); err != nil {
		return "", apperrors.Wrap(err, "writing correlation results")
	}
	return path, nil
}

// SaveTimeline writes the full crisis timeline projection.
func (s *CSVStore) SaveTimeline(events []models.CrisisEvent) (string, error) {
	path := filepath.Join(s.analysisDir(), "crisis_timeline.csv")
	if err := writeCSV(path, &events); err != nil {
		return "", apperrors.Wrap(err, "writing crisis timeline")
	}
	return path, nil
}

// SaveCountryTimeline writes a per-country timeline projection.
func (s *CSVStore) SaveCountryTimeline(countryCode string, events []models.CrisisEvent) (string, error) {
	path := filepath.Join(s.analysisDir(), fmt.Sprintf("crisis_timeline_%s.csv", countryCode))
	if err := writeCSV(path, &events); err != nil {
		return "", apperrors.Wrapf(err, "writing %s timeline", countryCode)
	}
	return path, nil
}

// SaveContextPrices writes spot market-context observations.
func (s *CSVStore) SaveContextPrices(prices []models.ContextPrice) (string, error) {
	if len(prices) == 0 {
		return "", apperrors.ErrNoData
	}
	today := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(s.analysisDir(), "market_context", fmt.Sprintf("%s_prices_%s.csv", prices[0].Source, today))
	if err := writeCSV(path, &prices); err != nil {
		return "", apperrors.Wrap(err, "writing context prices")
	}
	return path, nil
}

// SaveHistoricalSeries writes an instrument's daily price series.
func (s *CSVStore) SaveHistoricalSeries(instrument string, points []models.PricePoint) (string, error) {
	path := filepath.Join(s.analysisDir(), "historical", fmt.Sprintf("%s_daily.csv", instrument))
	if err := writeCSV(path, &points); err != nil {
		return "", apperrors.Wrapf(err, "writing %s series", instrument)
	}
	return path, nil
}

// LoadHistoricalSeries reads an instrument's daily price series.
func (s *CSVStore) LoadHistoricalSeries(instrument string) ([]models.PricePoint, error) {
	path := filepath.Join(s.analysisDir(), "historical", fmt.Sprintf("%s_daily.csv", instrument))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, apperrors.Wrapf(apperrors.ErrNoData, "no series for %s", instrument)
	}
	var points []models.PricePoint
	if err := readCSV(path, &points); err != nil {
		return nil, apperrors.Wrapf(err, "reading %s series", instrument)
	}
	return points, nil
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

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.Marshal(rows, f)
}

func appendCSV(path string, rows interface{}) error {
	_, statErr := os.Stat(path)
	exists := statErr == nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if exists {
		return gocsv.MarshalWithoutHeaders(rows, f)
	}
	return gocsv.Marshal(rows, f)
}

func readCSV(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.Unmarshal(f, out)
}
