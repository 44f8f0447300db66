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
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	// Free tier allows 50 calls per minute.
	coingeckoInterval = 1500 * time.Millisecond
)

// CoinGecko provides market-context data: spot prices, the exchange
// directory, and short historical series. It is not a P2P order book,
// so it does not implement Adapter.
type CoinGecko struct {
	client *Client
	log    zerolog.Logger
}

func NewCoinGecko(client *Client, log zerolog.Logger) *CoinGecko {
	return &CoinGecko{
		client: client,
		log:    logging.WithPlatform(log, "coingecko"),
	}
}

// CurrentPrices fetches spot prices for the given coin IDs against the
// given fiat codes, with market cap and 24h volume/change attached.
func (g *CoinGecko) CurrentPrices(ctx context.Context, coinIDs, vsCurrencies []string) ([]models.ContextPrice, error) {
	params := url.Values{
		"ids":                 {strings.Join(coinIDs, ",")},
		"vs_currencies":       {strings.ToLower(strings.Join(vsCurrencies, ","))},
		"include_market_cap":  {"true"},
		"include_24hr_vol":    {"true"},
		"include_24hr_change": {"true"},
	}

	var resp map[string]map[string]float64
	endpoint := coingeckoBaseURL + "/simple/price"
	start := time.Now()
	err := g.client.GetJSON(ctx, models.PlatformCoinGecko, endpoint, params, coingeckoInterval, &resp)
	logging.LogAPICall(g.log, "GET", endpoint, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	now := models.Now()
	var prices []models.ContextPrice
	for _, coin := range coinIDs {
		values, ok := resp[coin]
		if !ok {
			continue
		}
		for _, vs := range vsCurrencies {
			key := strings.ToLower(vs)
			price, ok := values[key]
			if !ok {
				continue
			}
			prices = append(prices, models.ContextPrice{
				Timestamp:   now,
				Source:      models.PlatformCoinGecko,
				Instrument:  coin,
				VsCurrency:  strings.ToUpper(vs),
				Price:       price,
				MarketCap:   values[key+"_market_cap"],
				Volume24h:   values[key+"_24h_vol"],
				Change24hPc: values[key+"_24h_change"],
			})
		}
	}
	if len(prices) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrNoData, "coingecko returned no prices")
	}
	return prices, nil
}

// ExchangeInfo is one entry of the exchange directory.
type ExchangeInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	Description  string  `json:"description"`
	TrustScore   int     `json:"trust_score"`
	Volume24hBTC float64 `json:"trade_volume_24h_btc"`
	URL          string  `json:"url"`
}

// p2pKeywords marks directory entries that plausibly run peer markets.
var p2pKeywords = []string{"p2p", "peer", "local", "otc", "decentralized"}

// P2PExchanges lists directory entries whose name or description hints
// at peer-to-peer trading.
func (g *CoinGecko) P2PExchanges(ctx context.Context, perPage int) ([]ExchangeInfo, error) {
	if perPage <= 0 || perPage > 250 {
		perPage = 50
	}
	params := url.Values{"per_page": {strconv.Itoa(perPage)}}

	var all []ExchangeInfo
	endpoint := coingeckoBaseURL + "/exchanges"
	start := time.Now()
	err := g.client.GetJSON(ctx, models.PlatformCoinGecko, endpoint, params, coingeckoInterval, &all)
	logging.LogAPICall(g.log, "GET", endpoint, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var p2p []ExchangeInfo
	for _, ex := range all {
		haystack := strings.ToLower(ex.Name + " " + ex.Description)
		for _, kw := range p2pKeywords {
			if strings.Contains(haystack, kw) {
				p2p = append(p2p, ex)
				break
			}
		}
	}
	return p2p, nil
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// MarketChart fetches a daily close-only price series. CoinGecko's
// chart endpoint has no OHLC at daily granularity, so open and close
// carry the same value.
func (g *CoinGecko) MarketChart(ctx context.Context, coinID, vsCurrency string, days int) ([]models.PricePoint, error) {
	params := url.Values{
		"vs_currency": {strings.ToLower(vsCurrency)},
		"days":        {strconv.Itoa(days)},
	}

	var resp marketChartResponse
	endpoint := coingeckoBaseURL + "/coins/" + coinID + "/market_chart"
	start := time.Now()
	err := g.client.GetJSON(ctx, models.PlatformCoinGecko, endpoint, params, coingeckoInterval, &resp)
	logging.LogAPICall(g.log, "GET", endpoint, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(resp.Prices))
	for _, pair := range resp.Prices {
		if len(pair) < 2 {
			continue
		}
		day := time.UnixMilli(int64(pair[0])).UTC().Truncate(24 * time.Hour)
		price := pair[1]
		points = append(points, models.PricePoint{
			Date:  models.Date{Time: day},
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		})
	}
	return points, nil
}
