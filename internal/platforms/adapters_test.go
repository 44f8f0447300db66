package platforms

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-crisis-collector/internal/models"
)

func testClient() *Client {
	return NewClient(10 * time.Second)
}

func TestNormalizeSide(t *testing.T) {
	cases := []struct {
		in      string
		want    models.TradeType
		wantErr bool
	}{
		{"BUY", models.TradeBuy, false},
		{"buy", models.TradeBuy, false},
		{" Sell ", models.TradeSell, false},
		{"SELL", models.TradeSell, false},
		{"bid", "", true},
		{"", "", true},
		{"BOTH", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeSide(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSafeFloat(t *testing.T) {
	assert.Equal(t, 1250.5, safeFloat("1250.50"))
	assert.Equal(t, 3.0, safeFloat(3.0))
	assert.Equal(t, 0.0, safeFloat("not a number"))
	assert.Equal(t, 0.0, safeFloat(nil))
	assert.Equal(t, 42.0, safeFloat(" 42 "))
}

func TestSafeInt(t *testing.T) {
	assert.Equal(t, 17, safeInt("17"))
	assert.Equal(t, 17, safeInt(17.0))
	assert.Equal(t, 17, safeInt("17.9"))
	assert.Equal(t, 0, safeInt("x"))
	assert.Equal(t, 0, safeInt(nil))
}

func sampleBinanceEntry() map[string]interface{} {
	return map[string]interface{}{
		"adv": map[string]interface{}{
			"asset":                       "USDT",
			"fiatUnit":                    "SDG",
			"price":                       "1250.50",
			"minSingleTransAmount":        "5000",
			"dynamicMaxSingleTransAmount": "100000",
			"surplusAmount":               "2500.75",
			"advNo":                       "11590000001",
			"tradeMethods": []interface{}{
				map[string]interface{}{"tradeMethodName": "Bank Transfer"},
				map[string]interface{}{"tradeMethodName": "Bankak"},
			},
		},
		"advertiser": map[string]interface{}{
			"nickName":        "crypto_sd",
			"monthFinishRate": 0.98,
			"monthOrderCount": 143.0,
		},
	}
}

func TestBinanceStandardize(t *testing.T) {
	b := NewBinance(testClient(), zerolog.Nop(), 5)

	ad, err := b.Standardize(sampleBinanceEntry(), "SD", models.TradeBuy)
	require.NoError(t, err)

	assert.Equal(t, models.PlatformBinance, ad.Platform)
	assert.Equal(t, "USDT", ad.Asset)
	assert.Equal(t, "SDG", ad.Fiat)
	assert.Equal(t, 1250.50, ad.Price)
	assert.Equal(t, 5000.0, ad.MinAmount)
	assert.Equal(t, 100000.0, ad.MaxAmount)
	assert.Equal(t, 2500.75, ad.AvailableAmount)
	assert.Equal(t, models.TradeBuy, ad.TradeType)
	assert.Equal(t, "SD", ad.CountryCode)
	assert.Equal(t, models.PaymentMethods{"Bank Transfer", "Bankak"}, ad.PaymentMethods)
	assert.Equal(t, "crypto_sd", ad.AdvertiserName)
	assert.Equal(t, 0.98, ad.CompletionRate)
	assert.Equal(t, 143, ad.OrderCount)
	assert.Equal(t, "11590000001", ad.AdID)
	assert.False(t, ad.PremiumPct.Valid, "premium is unset at standardization")
	assert.False(t, ad.OfficialRate.Valid)
	assert.False(t, ad.Timestamp.IsZero())
}

func TestBinanceStandardizeMaxAmountAlias(t *testing.T) {
	b := NewBinance(testClient(), zerolog.Nop(), 5)

	entry := sampleBinanceEntry()
	adv := entry["adv"].(map[string]interface{})
	delete(adv, "dynamicMaxSingleTransAmount")
	adv["maxSingleTransAmount"] = "80000"

	ad, err := b.Standardize(entry, "SD", models.TradeSell)
	require.NoError(t, err)
	assert.Equal(t, 80000.0, ad.MaxAmount)
}

func TestBinanceStandardizeMissingAdv(t *testing.T) {
	b := NewBinance(testClient(), zerolog.Nop(), 5)

	_, err := b.Standardize(map[string]interface{}{"advertiser": map[string]interface{}{}}, "SD", models.TradeBuy)
	assert.Error(t, err)
}

func TestOKXStandardize(t *testing.T) {
	o := NewOKX(testClient(), zerolog.Nop(), 3)

	raw := map[string]interface{}{
		"cryptoCurrency":    "USDT",
		"fiatCurrency":      "NGN",
		"price":             "780.25",
		"minQuoteAmount":    "1000",
		"maxQuoteAmount":    "500000",
		"availableAmount":   "1200.5",
		"paymentMethodList": []interface{}{"Bank Transfer", "Opay"},
		"merchantName":      "naija_trader",
		"completionRate":    "0.95",
		"orderCount":        88.0,
		"id":                1.234567e6,
	}

	ad, err := o.Standardize(raw, "NG", models.TradeSell)
	require.NoError(t, err)

	assert.Equal(t, models.PlatformOKX, ad.Platform)
	assert.Equal(t, "NGN", ad.Fiat)
	assert.Equal(t, 780.25, ad.Price)
	assert.Equal(t, models.TradeSell, ad.TradeType)
	assert.Equal(t, models.PaymentMethods{"Bank Transfer", "Opay"}, ad.PaymentMethods)
	assert.Equal(t, "naija_trader", ad.AdvertiserName)
	assert.Equal(t, 88, ad.OrderCount)
	assert.Equal(t, "1234567", ad.AdID)
	assert.False(t, ad.PremiumPct.Valid)
}

func TestLocalBitcoinsStandardize(t *testing.T) {
	l := NewLocalBitcoins(testClient(), zerolog.Nop())

	raw := map[string]interface{}{
		"currency":        "VES",
		"temp_price":      "9800000.12",
		"min_amount":      "50",
		"max_amount":      "5000",
		"online_provider": "TRANSFERS_WITH_SPECIFIC_BANK",
		"ad_id":           44521.0,
		"profile": map[string]interface{}{
			"username":       "caracas_btc",
			"trade_count":    "500+",
			"feedback_score": 99.0,
		},
	}

	ad, err := l.Standardize(raw, "VE", models.TradeBuy)
	require.NoError(t, err)

	assert.Equal(t, models.PlatformLocalBitcoins, ad.Platform)
	assert.Equal(t, "BTC", ad.Asset, "platform only trades bitcoin")
	assert.Equal(t, "VES", ad.Fiat)
	assert.Equal(t, 9800000.12, ad.Price)
	assert.Equal(t, models.PaymentMethods{"TRANSFERS_WITH_SPECIFIC_BANK"}, ad.PaymentMethods)
	assert.Equal(t, "caracas_btc", ad.AdvertiserName)
	assert.Equal(t, 0, ad.OrderCount, "lenient cast turns '500+' into zero")
	assert.Equal(t, "44521", ad.AdID)
}

func TestLocalBitcoinsFiatDefault(t *testing.T) {
	l := NewLocalBitcoins(testClient(), zerolog.Nop())

	ad, err := l.Standardize(map[string]interface{}{"temp_price": "100"}, "AR", models.TradeSell)
	require.NoError(t, err)
	assert.Equal(t, "USD", ad.Fiat)
}

func TestDigMissingPath(t *testing.T) {
	m := map[string]interface{}{"a": map[string]interface{}{"b": "x"}}
	assert.Equal(t, "x", dig(m, "a", "b"))
	assert.Nil(t, dig(m, "a", "c"))
	assert.Nil(t, dig(m, "z", "b"))
}
