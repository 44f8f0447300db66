package platforms

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"p2p-crisis-collector/internal/config"
	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
)

const (
	localbitcoinsBaseURL  = "https://localbitcoins.com"
	localbitcoinsInterval = 2 * time.Second
)

// LocalBitcoins collects BTC advertisements from the unauthenticated
// per-country listing endpoints. One request per side, no pagination.
type LocalBitcoins struct {
	client *Client
	log    zerolog.Logger
}

func NewLocalBitcoins(client *Client, log zerolog.Logger) *LocalBitcoins {
	return &LocalBitcoins{
		client: client,
		log:    logging.WithPlatform(log, "localbitcoins"),
	}
}

func (l *LocalBitcoins) Platform() models.Platform { return models.PlatformLocalBitcoins }

type localbitcoinsResponse struct {
	Data struct {
		AdList []struct {
			Data map[string]interface{} `json:"data"`
		} `json:"ad_list"`
	} `json:"data"`
}

// FetchSide returns all raw ads for one side of a country's book.
func (l *LocalBitcoins) FetchSide(ctx context.Context, countryCode string, side models.TradeType) ([]map[string]interface{}, error) {
	slug := "buy-bitcoins-online"
	if side == models.TradeSell {
		slug = "sell-bitcoins-online"
	}
	endpoint := fmt.Sprintf("%s/%s/%s/.json", localbitcoinsBaseURL, slug, countryCode)

	var resp localbitcoinsResponse
	start := time.Now()
	err := l.client.GetJSON(ctx, models.PlatformLocalBitcoins, endpoint, nil, localbitcoinsInterval, &resp)
	logging.LogAPICall(l.log, "GET", endpoint, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	raw := make([]map[string]interface{}, 0, len(resp.Data.AdList))
	for _, entry := range resp.Data.AdList {
		if entry.Data != nil {
			raw = append(raw, entry.Data)
		}
	}
	return raw, nil
}

// Standardize maps one raw listing onto the canonical ad shape. The
// asset is always BTC on this platform.
func (l *LocalBitcoins) Standardize(raw map[string]interface{}, countryCode string, side models.TradeType) (models.Advertisement, error) {
	tradeType, err := NormalizeSide(string(side))
	if err != nil {
		return models.Advertisement{}, err
	}

	var methods models.PaymentMethods
	if provider := str(raw["online_provider"]); provider != "" {
		methods = models.PaymentMethods{provider}
	}

	fiat := str(raw["currency"])
	if fiat == "" {
		fiat = "USD"
	}

	return models.Advertisement{
		Platform:        models.PlatformLocalBitcoins,
		Timestamp:       models.Now(),
		Asset:           "BTC",
		Fiat:            fiat,
		Price:           safeFloat(raw["temp_price"]),
		MinAmount:       safeFloat(raw["min_amount"]),
		MaxAmount:       safeFloat(raw["max_amount"]),
		AvailableAmount: safeFloat(raw["max_amount_available"]),
		TradeType:       tradeType,
		CountryCode:     countryCode,
		PaymentMethods:  methods,
		AdvertiserName:  str(dig(raw, "profile", "username")),
		CompletionRate:  safeFloat(dig(raw, "profile", "feedback_score")),
		OrderCount:      safeInt(dig(raw, "profile", "trade_count")),
		AdID:            stringify(raw["ad_id"]),
	}, nil
}

// CollectCountry fetches both sides of the book for one country.
func (l *LocalBitcoins) CollectCountry(ctx context.Context, profile config.CountryProfile, asset string) ([]models.Advertisement, error) {
	var (
		all      []models.Advertisement
		firstErr error
	)

	clog := logging.WithCountry(l.log, profile.CountryCode)
	for _, side := range []models.TradeType{models.TradeBuy, models.TradeSell} {
		raw, err := l.FetchSide(ctx, profile.CountryCode, side)
		if err != nil {
			clog.Warn().Err(err).Str("side", string(side)).Msg("side fetch failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, entry := range raw {
			ad, err := l.Standardize(entry, profile.CountryCode, side)
			if err != nil {
				clog.Warn().Err(err).Msg("skipping malformed listing")
				continue
			}
			all = append(all, ad)
		}
	}

	logging.LogCollection(l.log, "localbitcoins", profile.CountryCode,
		len(all), countSide(all, models.TradeBuy), countSide(all, models.TradeSell))
	return all, firstErr
}
