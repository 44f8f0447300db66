package platforms

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
)

const (
	cryptocompareBaseURL  = "https://min-api.cryptocompare.com/data"
	cryptocompareInterval = time.Second
	// Free tier serves at most 2000 daily candles per request.
	cryptocompareMaxCandles = 2000
)

// CryptoCompare supplies daily historical candles and spot prices. Its
// series feed the correlation engine.
type CryptoCompare struct {
	client *Client
	log    zerolog.Logger
}

func NewCryptoCompare(client *Client, log zerolog.Logger) *CryptoCompare {
	return &CryptoCompare{
		client: client,
		log:    logging.WithPlatform(log, "cryptocompare"),
	}
}

type histodayResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     []struct {
		Time       int64   `json:"time"`
		Open       float64 `json:"open"`
		High       float64 `json:"high"`
		Low        float64 `json:"low"`
		Close      float64 `json:"close"`
		VolumeFrom float64 `json:"volumefrom"`
	} `json:"Data"`
}

// HistoricalDaily fetches up to days daily candles for crypto priced in
// fiat. The API takes limit as days minus one.
func (c *CryptoCompare) HistoricalDaily(ctx context.Context, crypto, fiat string, days int) ([]models.PricePoint, error) {
	limit := days - 1
	if limit > cryptocompareMaxCandles {
		limit = cryptocompareMaxCandles
	}
	if limit < 1 {
		limit = 1
	}

	params := url.Values{
		"fsym":  {strings.ToUpper(crypto)},
		"tsym":  {strings.ToUpper(fiat)},
		"limit": {strconv.Itoa(limit)},
	}

	var resp histodayResponse
	endpoint := cryptocompareBaseURL + "/histoday"
	start := time.Now()
	err := c.client.GetJSON(ctx, models.PlatformCryptoCompare, endpoint, params, cryptocompareInterval, &resp)
	logging.LogAPICall(c.log, "GET", endpoint, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if resp.Response == "Error" {
		return nil, apperrors.NewParseError("cryptocompare", resp.Message, nil)
	}

	points := make([]models.PricePoint, 0, len(resp.Data))
	for _, candle := range resp.Data {
		day := time.Unix(candle.Time, 0).UTC().Truncate(24 * time.Hour)
		points = append(points, models.PricePoint{
			Date:   models.Date{Time: day},
			Open:   candle.Open,
			High:   candle.High,
			Low:    candle.Low,
			Close:  candle.Close,
			Volume: candle.VolumeFrom,
		})
	}
	return points, nil
}

// CurrentPrices fetches spot prices for each crypto symbol against the
// given fiat codes.
func (c *CryptoCompare) CurrentPrices(ctx context.Context, cryptos, fiats []string) ([]models.ContextPrice, error) {
	now := models.Now()
	var prices []models.ContextPrice

	for _, crypto := range cryptos {
		params := url.Values{
			"fsym":  {strings.ToUpper(crypto)},
			"tsyms": {strings.ToUpper(strings.Join(fiats, ","))},
		}

		var resp map[string]interface{}
		endpoint := cryptocompareBaseURL + "/price"
		start := time.Now()
		err := c.client.GetJSON(ctx, models.PlatformCryptoCompare, endpoint, params, cryptocompareInterval, &resp)
		logging.LogAPICall(c.log, "GET", endpoint, time.Since(start), err)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", crypto).Msg("price fetch failed")
			continue
		}
		if str(resp["Response"]) == "Error" {
			c.log.Warn().Str("symbol", crypto).Str("message", str(resp["Message"])).Msg("upstream error")
			continue
		}

		for _, fiat := range fiats {
			key := strings.ToUpper(fiat)
			price, ok := resp[key]
			if !ok {
				continue
			}
			prices = append(prices, models.ContextPrice{
				Timestamp:  now,
				Source:     models.PlatformCryptoCompare,
				Instrument: strings.ToUpper(crypto),
				VsCurrency: key,
				Price:      safeFloat(price),
			})
		}
	}

	if len(prices) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrNoData, "cryptocompare returned no prices")
	}
	return prices, nil
}
