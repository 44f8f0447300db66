package platforms

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"p2p-crisis-collector/internal/config"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
)

const (
	okxInterval  = time.Second
	okxPageLimit = 20
)

// okxEndpoints is the candidate URL list tried in order. The OTC API has
// moved between revisions; the first endpoint that answers with data wins.
var okxEndpoints = []string{
	"https://www.okx.com/api/v5/mktdata/exchange-rate",
	"https://www.okx.com/priapi/v1/otc/c2c/orders",
	"https://www.okx.com/v3/c2c/tradingOrders/getOrders",
	"https://www.okx.com/api/v5/market/exchange-rate",
}

// OKX collects P2P advertisements from the OKX OTC order book.
type OKX struct {
	client   *Client
	log      zerolog.Logger
	maxPages int
}

// NewOKX returns an adapter capped at maxPages pages per side.
func NewOKX(client *Client, log zerolog.Logger, maxPages int) *OKX {
	if maxPages <= 0 {
		maxPages = 3
	}
	return &OKX{
		client:   client,
		log:      logging.WithPlatform(log, "okx"),
		maxPages: maxPages,
	}
}

func (o *OKX) Platform() models.Platform { return models.PlatformOKX }

type okxResponse struct {
	Data struct {
		Orders []map[string]interface{} `json:"orders"`
	} `json:"data"`
}

// FetchPage tries each known endpoint in order and returns the first
// non-empty order list. All endpoints failing is a transport error.
func (o *OKX) FetchPage(ctx context.Context, asset, fiat string, side models.TradeType, page int) ([]map[string]interface{}, error) {
	params := url.Values{
		"cryptoCurrency": {asset},
		"fiatCurrency":   {fiat},
		"side":           {strings.ToLower(string(side))},
		"page":           {strconv.Itoa(page)},
		"limit":          {strconv.Itoa(okxPageLimit)},
		"userType":       {""},
		"paymentMethod":  {""},
		"sortType":       {"1"},
	}

	var lastErr error
	for _, endpoint := range okxEndpoints {
		var resp okxResponse
		start := time.Now()
		err := o.client.GetJSON(ctx, models.PlatformOKX, endpoint, params, okxInterval, &resp)
		logging.LogAPICall(o.log, "GET", endpoint, time.Since(start), err)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Data.Orders) > 0 {
			return resp.Data.Orders, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// Standardize maps one raw order onto the canonical ad shape.
func (o *OKX) Standardize(raw map[string]interface{}, countryCode string, side models.TradeType) (models.Advertisement, error) {
	tradeType, err := NormalizeSide(string(side))
	if err != nil {
		return models.Advertisement{}, err
	}

	var methods models.PaymentMethods
	if list, ok := raw["paymentMethodList"].([]interface{}); ok {
		for _, m := range list {
			if name := str(m); name != "" {
				methods = append(methods, name)
			}
		}
	}

	return models.Advertisement{
		Platform:        models.PlatformOKX,
		Timestamp:       models.Now(),
		Asset:           str(raw["cryptoCurrency"]),
		Fiat:            str(raw["fiatCurrency"]),
		Price:           safeFloat(raw["price"]),
		MinAmount:       safeFloat(firstOf(raw, "minQuoteAmount", "quoteMinAmountPerOrder")),
		MaxAmount:       safeFloat(firstOf(raw, "maxQuoteAmount", "quoteMaxAmountPerOrder")),
		AvailableAmount: safeFloat(raw["availableAmount"]),
		TradeType:       tradeType,
		CountryCode:     countryCode,
		PaymentMethods:  methods,
		AdvertiserName:  str(firstOf(raw, "merchantName", "nickName")),
		CompletionRate:  safeFloat(raw["completionRate"]),
		OrderCount:      safeInt(raw["orderCount"]),
		AdID:            stringify(raw["id"]),
	}, nil
}

// stringify renders loosely typed ad identifiers, which OKX has served
// both as strings and numbers.
func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

// CollectCountry fetches both sides of the book for one country.
func (o *OKX) CollectCountry(ctx context.Context, profile config.CountryProfile, asset string) ([]models.Advertisement, error) {
	var (
		all      []models.Advertisement
		firstErr error
	)

	clog := logging.WithCountry(o.log, profile.CountryCode)
	for _, side := range []models.TradeType{models.TradeBuy, models.TradeSell} {
		log := clog.With().Str("side", string(side)).Str("fiat", profile.Fiat).Logger()

		for page := 1; page <= o.maxPages; page++ {
			orders, err := o.FetchPage(ctx, asset, profile.Fiat, side, page)
			if err != nil {
				log.Warn().Err(err).Int("page", page).Msg("page fetch failed, aborting side")
				if firstErr == nil {
					firstErr = apperrors.Wrapf(err, "okx %s page %d", side, page)
				}
				break
			}
			if len(orders) == 0 {
				break
			}

			for _, order := range orders {
				ad, err := o.Standardize(order, profile.CountryCode, side)
				if err != nil {
					log.Warn().Err(err).Msg("skipping malformed order")
					continue
				}
				all = append(all, ad)
			}
		}
	}

	logging.LogCollection(o.log, "okx", profile.CountryCode,
		len(all), countSide(all, models.TradeBuy), countSide(all, models.TradeSell))
	return all, firstErr
}
