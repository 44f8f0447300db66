// Package models provides domain models for the collection pipeline.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Platform identifies a P2P trading platform or price API.
type Platform string

const (
	PlatformBinance       Platform = "binance"
	PlatformOKX           Platform = "okx"
	PlatformLocalBitcoins Platform = "localbitcoins"
	PlatformCoinGecko     Platform = "coingecko"
	PlatformCryptoCompare Platform = "cryptocompare"
)

// TradeType represents the side of an advertisement from the
// counterparty's perspective: BUY means the advertiser buys the asset.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// RunStatus represents the outcome of one collection run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
	RunPartial RunStatus = "partial"
)

// DateTime wraps time.Time so CSV columns round-trip as RFC 3339 UTC.
type DateTime struct {
	time.Time
}

// Now returns the current instant as a DateTime in UTC.
func Now() DateTime {
	return DateTime{time.Now().UTC()}
}

// MarshalCSV implements the gocsv marshaller.
func (d DateTime) MarshalCSV() (string, error) {
	if d.IsZero() {
		return "", nil
	}
	return d.UTC().Format(time.RFC3339), nil
}

// UnmarshalCSV implements the gocsv unmarshaller.
func (d *DateTime) UnmarshalCSV(s string) error {
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = t.UTC()
	return nil
}

// Date wraps time.Time for day-precision CSV columns (YYYY-MM-DD).
type Date struct {
	time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalCSV implements the gocsv marshaller.
func (d Date) MarshalCSV() (string, error) {
	if d.IsZero() {
		return "", nil
	}
	return d.UTC().Format("2006-01-02"), nil
}

// UnmarshalCSV implements the gocsv unmarshaller.
func (d *Date) UnmarshalCSV(s string) error {
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t.UTC()
	return nil
}

// PaymentMethods is an ordered set of free-text payment method labels.
// It serializes to a single CSV cell as a JSON array; a missing or
// unparsable cell decodes to an empty list.
type PaymentMethods []string

// MarshalCSV implements the gocsv marshaller.
func (p PaymentMethods) MarshalCSV() (string, error) {
	if p == nil {
		p = PaymentMethods{}
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalCSV implements the gocsv unmarshaller.
func (p *PaymentMethods) UnmarshalCSV(s string) error {
	if s == "" {
		*p = PaymentMethods{}
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		*p = PaymentMethods{}
		return nil
	}
	*p = out
	return nil
}

// NullFloat64 is a float CSV cell that distinguishes unset from zero.
// An empty cell stays unset across a save/load cycle; a stored zero
// stays a zero.
type NullFloat64 struct {
	Float64 float64
	Valid   bool
}

// Float64 builds a set NullFloat64.
func Float64(v float64) NullFloat64 {
	return NullFloat64{Float64: v, Valid: true}
}

// MarshalCSV implements the gocsv marshaller.
func (n NullFloat64) MarshalCSV() (string, error) {
	if !n.Valid {
		return "", nil
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64), nil
}

// UnmarshalCSV implements the gocsv unmarshaller.
func (n *NullFloat64) UnmarshalCSV(s string) error {
	if strings.TrimSpace(s) == "" {
		*n = NullFloat64{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = NullFloat64{Float64: v, Valid: true}
	return nil
}

// SourceList holds reference sources for a crisis event. CSV cells use
// a "; " separated form to stay readable in spreadsheets.
type SourceList []string

// MarshalCSV implements the gocsv marshaller.
func (s SourceList) MarshalCSV() (string, error) {
	return strings.Join(s, "; "), nil
}

// UnmarshalCSV implements the gocsv unmarshaller.
func (s *SourceList) UnmarshalCSV(cell string) error {
	if cell == "" {
		*s = SourceList{}
		return nil
	}
	*s = SourceList(strings.Split(cell, "; "))
	return nil
}

// Advertisement is one standardized P2P trade offer as observed at a
// specific crawl instant. After standardization the record is immutable
// except for the later writes of CollectionID, PremiumPct and
// OfficialRate.
type Advertisement struct {
	Platform        Platform       `csv:"platform"`
	Timestamp       DateTime       `csv:"timestamp"`
	Asset           string         `csv:"asset"`
	Fiat            string         `csv:"fiat"`
	Price           float64        `csv:"price"`
	MinAmount       float64        `csv:"min_amount"`
	MaxAmount       float64        `csv:"max_amount"`
	AvailableAmount float64        `csv:"available_amount"`
	TradeType       TradeType      `csv:"trade_type"`
	CountryCode     string         `csv:"country_code"`
	PaymentMethods  PaymentMethods `csv:"payment_methods"`
	AdvertiserName  string         `csv:"advertiser_name"`
	CompletionRate  float64        `csv:"completion_rate"`
	OrderCount      int            `csv:"order_count"`
	AdID            string         `csv:"ad_id"`
	PremiumPct      NullFloat64    `csv:"premium_pct"`
	OfficialRate    NullFloat64    `csv:"official_rate"`
	CollectionID    string         `csv:"collection_id"`
}

// CollectionRun is one (platform, country) collection attempt.
// Rows are append-only; AdsCollected must equal BuyAds + SellAds.
type CollectionRun struct {
	CollectionID string    `csv:"collection_id"`
	Timestamp    DateTime  `csv:"timestamp"`
	Platform     Platform  `csv:"platform"`
	CountryCode  string    `csv:"country_code"`
	CountryName  string    `csv:"country_name"`
	FiatCurrency string    `csv:"fiat_currency"`
	AdsCollected int       `csv:"ads_collected"`
	BuyAds       int       `csv:"buy_ads"`
	SellAds      int       `csv:"sell_ads"`
	Status       RunStatus `csv:"status"`
	ErrorMessage string    `csv:"error_message"`
}

// ExchangeRate records an official fiat rate observation.
// USDRate is local currency units per 1 USD.
type ExchangeRate struct {
	Timestamp    DateTime `csv:"timestamp"`
	FiatCurrency string   `csv:"fiat_currency"`
	USDRate      float64  `csv:"usd_rate"`
	Source       string   `csv:"source"`
	CollectionID string   `csv:"collection_id"`
}

// DailySummary aggregates one day of raw ads per (platform, country, fiat).
type DailySummary struct {
	Date           Date     `csv:"date"`
	Platform       Platform `csv:"platform"`
	CountryCode    string   `csv:"country_code"`
	FiatCurrency   string   `csv:"fiat_currency"`
	TotalAds       int      `csv:"total_ads"`
	BuyAds         int      `csv:"buy_ads"`
	SellAds        int      `csv:"sell_ads"`
	AvgBuyPrice    float64  `csv:"avg_buy_price"`
	AvgSellPrice   float64  `csv:"avg_sell_price"`
	PriceSpread    float64  `csv:"price_spread"`
	TotalLiquidity float64  `csv:"total_liquidity"`
	AvgPremium     float64  `csv:"avg_premium"`
}

// PremiumResult is a per-country premium aggregate against the official rate.
type PremiumResult struct {
	CountryCode   string  `csv:"country_code"`
	Fiat          string  `csv:"fiat"`
	TotalAds      int     `csv:"total_ads"`
	BuyAds        int     `csv:"buy_ads"`
	SellAds       int     `csv:"sell_ads"`
	AvgPrice      float64 `csv:"avg_price"`
	MedianPrice   float64 `csv:"median_price"`
	OfficialRate  float64 `csv:"official_rate"`
	PremiumAvg    float64 `csv:"premium_avg"`
	PremiumMedian float64 `csv:"premium_median"`
}

// MarketPattern labels the buy/sell balance of a country's ads.
type MarketPattern string

const (
	PatternHeavySellPressure    MarketPattern = "heavy_sell_pressure"
	PatternModerateSellPressure MarketPattern = "moderate_sell_pressure"
	PatternBuyPressure          MarketPattern = "buy_pressure"
	PatternBalanced             MarketPattern = "balanced"
)

// CountryStats captures per-country market structure for one analysis pass.
type CountryStats struct {
	CountryCode     string        `csv:"country_code"`
	FiatCurrency    string        `csv:"fiat_currency"`
	TotalAds        int           `csv:"total_ads"`
	BuyAds          int           `csv:"buy_ads"`
	SellAds         int           `csv:"sell_ads"`
	AvgPrice        float64       `csv:"avg_price"`
	MedianPrice     float64       `csv:"median_price"`
	PriceStd        float64       `csv:"price_std"`
	MinPrice        float64       `csv:"min_price"`
	MaxPrice        float64       `csv:"max_price"`
	TotalVolume     float64       `csv:"total_volume"`
	UniqueTraders   int           `csv:"unique_traders"`
	MarketPattern   MarketPattern `csv:"market_pattern"`
	CrisisIndicator string        `csv:"crisis_indicator"`
	AnalyzedAt      DateTime      `csv:"analysis_timestamp"`
}

// CryptoImpact is the expected direction of crypto activity after an event.
type CryptoImpact string

const (
	ImpactIncrease CryptoImpact = "increase"
	ImpactDecrease CryptoImpact = "decrease"
	ImpactMixed    CryptoImpact = "mixed"
	ImpactUnknown  CryptoImpact = "unknown"
)

// CrisisEvent is a dated, country-scoped occurrence hypothesized to
// affect P2P crypto markets. The catalog is authored in code and
// read-only at runtime; CSV export is a projection.
type CrisisEvent struct {
	Date                   Date         `csv:"date"`
	CountryCode            string       `csv:"country_code"`
	EventType              string       `csv:"event_type"`
	Title                  string       `csv:"title"`
	Description            string       `csv:"description"`
	ImpactSeverity         int          `csv:"impact_severity"`
	ExpectedCryptoImpact   CryptoImpact `csv:"expected_crypto_impact"`
	DataCollectionPriority int          `csv:"data_collection_priority"`
	Sources                SourceList   `csv:"sources"`
}

// PricePoint is one day of an instrument's historical price series.
// Dates are UTC midnights.
type PricePoint struct {
	Date   Date    `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// ContextPrice is a spot market-context observation from a price API.
type ContextPrice struct {
	Timestamp   DateTime `csv:"timestamp"`
	Source      Platform `csv:"source"`
	Instrument  string   `csv:"instrument"`
	VsCurrency  string   `csv:"vs_currency"`
	Price       float64  `csv:"price"`
	MarketCap   float64  `csv:"market_cap"`
	Volume24h   float64  `csv:"volume_24h"`
	Change24hPc float64  `csv:"change_24h_pct"`
}

// CorrelationResult holds pre/post window statistics for one
// (crisis event, instrument) pair. Derived and recomputable.
type CorrelationResult struct {
	EventDate           Date    `csv:"event_date"`
	CountryCode         string  `csv:"country_code"`
	EventType           string  `csv:"event_type"`
	EventTitle          string  `csv:"event_title"`
	ImpactSeverity      int     `csv:"impact_severity"`
	Instrument          string  `csv:"instrument"`
	PreMean             float64 `csv:"pre_mean"`
	PostMean            float64 `csv:"post_mean"`
	PriceChangePct      float64 `csv:"price_change_pct"`
	PreVolatility       float64 `csv:"pre_volatility"`
	PostVolatility      float64 `csv:"post_volatility"`
	VolatilityChangePct float64 `csv:"volatility_change_pct"`
	PrePoints           int     `csv:"pre_points"`
	PostPoints          int     `csv:"post_points"`
}
