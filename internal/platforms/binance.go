package platforms

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"p2p-crisis-collector/internal/config"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
)

const (
	binanceSearchURL = "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search"
	binanceInterval  = 500 * time.Millisecond
	binancePageRows  = 20
)

// Binance collects P2P advertisements from the Binance friendly search
// endpoint. The endpoint is unauthenticated and paginated.
type Binance struct {
	client   *Client
	log      zerolog.Logger
	maxPages int
}

// NewBinance returns an adapter capped at maxPages pages per side.
func NewBinance(client *Client, log zerolog.Logger, maxPages int) *Binance {
	if maxPages <= 0 {
		maxPages = 5
	}
	return &Binance{
		client:   client,
		log:      logging.WithPlatform(log, "binance"),
		maxPages: maxPages,
	}
}

func (b *Binance) Platform() models.Platform { return models.PlatformBinance }

type binanceSearch struct {
	Page          int      `json:"page"`
	Rows          int      `json:"rows"`
	PayTypes      []string `json:"payTypes"`
	Countries     []string `json:"countries"`
	PublisherType *string  `json:"publisherType"`
	Asset         string   `json:"asset"`
	Fiat          string   `json:"fiat"`
	TradeType     string   `json:"tradeType"`
	Timestamp     string   `json:"timestamp,omitempty"`
}

type binanceResponse struct {
	Data []map[string]interface{} `json:"data"`
}

// FetchPage returns one page of raw advertisement entries.
func (b *Binance) FetchPage(ctx context.Context, asset, fiat string, side models.TradeType, page int) ([]map[string]interface{}, error) {
	return b.fetchPage(ctx, asset, fiat, side, page, "")
}

func (b *Binance) fetchPage(ctx context.Context, asset, fiat string, side models.TradeType, page int, timestamp string) ([]map[string]interface{}, error) {
	payload := binanceSearch{
		Page:      page,
		Rows:      binancePageRows,
		PayTypes:  []string{},
		Countries: []string{},
		Asset:     asset,
		Fiat:      fiat,
		TradeType: string(side),
		Timestamp: timestamp,
	}

	var resp binanceResponse
	start := time.Now()
	err := b.client.PostJSON(ctx, models.PlatformBinance, binanceSearchURL, payload, binanceInterval, &resp)
	logging.LogAPICall(b.log, "POST", binanceSearchURL, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Standardize maps one raw search entry onto the canonical ad shape.
func (b *Binance) Standardize(raw map[string]interface{}, countryCode string, side models.TradeType) (models.Advertisement, error) {
	tradeType, err := NormalizeSide(string(side))
	if err != nil {
		return models.Advertisement{}, err
	}

	adv, _ := raw["adv"].(map[string]interface{})
	advertiser, _ := raw["advertiser"].(map[string]interface{})
	if adv == nil {
		return models.Advertisement{}, apperrors.NewParseError("binance", "entry missing adv object", nil)
	}

	var methods models.PaymentMethods
	if list, ok := adv["tradeMethods"].([]interface{}); ok {
		for _, m := range list {
			if method, ok := m.(map[string]interface{}); ok {
				if name := str(method["tradeMethodName"]); name != "" {
					methods = append(methods, name)
				}
			}
		}
	}

	return models.Advertisement{
		Platform:        models.PlatformBinance,
		Timestamp:       models.Now(),
		Asset:           str(adv["asset"]),
		Fiat:            str(adv["fiatUnit"]),
		Price:           safeFloat(adv["price"]),
		MinAmount:       safeFloat(adv["minSingleTransAmount"]),
		MaxAmount:       safeFloat(firstOf(adv, "dynamicMaxSingleTransAmount", "maxSingleTransAmount")),
		AvailableAmount: safeFloat(adv["surplusAmount"]),
		TradeType:       tradeType,
		CountryCode:     countryCode,
		PaymentMethods:  methods,
		AdvertiserName:  str(dig(advertiser, "nickName")),
		CompletionRate:  safeFloat(dig(advertiser, "monthFinishRate")),
		OrderCount:      safeInt(dig(advertiser, "monthOrderCount")),
		AdID:            str(adv["advNo"]),
	}, nil
}

// CollectCountry fetches both sides of the book for one country. A page
// failure aborts only that side; the error is carried so the caller can
// mark the run partial.
func (b *Binance) CollectCountry(ctx context.Context, profile config.CountryProfile, asset string) ([]models.Advertisement, error) {
	var (
		all      []models.Advertisement
		firstErr error
	)

	clog := logging.WithCountry(b.log, profile.CountryCode)
	for _, side := range []models.TradeType{models.TradeBuy, models.TradeSell} {
		log := clog.With().Str("side", string(side)).Str("fiat", profile.Fiat).Logger()

		for page := 1; page <= b.maxPages; page++ {
			entries, err := b.FetchPage(ctx, asset, profile.Fiat, side, page)
			if err != nil {
				log.Warn().Err(err).Int("page", page).Msg("page fetch failed, aborting side")
				if firstErr == nil {
					firstErr = err
				}
				break
			}
			if len(entries) == 0 {
				break
			}

			for _, entry := range entries {
				ad, err := b.Standardize(entry, profile.CountryCode, side)
				if err != nil {
					log.Warn().Err(err).Msg("skipping malformed entry")
					continue
				}
				all = append(all, ad)
			}
		}
	}

	logging.LogCollection(b.log, "binance", profile.CountryCode,
		len(all), countSide(all, models.TradeBuy), countSide(all, models.TradeSell))
	return all, firstErr
}

// ProbeHistorical replays the same query with literal timestamp variants
// and reports whether any response differs from the current baseline.
// The endpoint is not documented to accept a timestamp; this is a
// capability check, not a collection path.
func (b *Binance) ProbeHistorical(ctx context.Context, profile config.CountryProfile, asset string) (bool, error) {
	variants := []string{
		"2021-02-05T00:00:00Z",
		"1612483200000",
		"2021-02-05",
	}

	baseline, err := b.fetchPage(ctx, asset, profile.Fiat, models.TradeSell, 1, "")
	if err != nil {
		return false, apperrors.Wrap(err, "fetching baseline page")
	}

	differs := false
	for _, ts := range variants {
		entries, err := b.fetchPage(ctx, asset, profile.Fiat, models.TradeSell, 1, ts)
		if err != nil {
			b.log.Warn().Err(err).Str("timestamp", ts).Msg("probe variant failed")
			continue
		}
		b.log.Info().Str("timestamp", ts).Int("ads", len(entries)).Msg("probe variant")
		if !samePrices(baseline, entries) {
			differs = true
		}
	}
	if !differs {
		b.log.Info().Msg("endpoint returns current data only")
	}
	return differs, nil
}

func samePrices(a, b []map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		pa := str(dig(a[i], "adv", "price"))
		pb := str(dig(b[i], "adv", "price"))
		if pa != pb {
			return false
		}
	}
	return true
}

func countSide(ads []models.Advertisement, side models.TradeType) int {
	n := 0
	for _, ad := range ads {
		if ad.TradeType == side {
			n++
		}
	}
	return n
}
