// Package platforms contains the upstream market-data adapters. Each
// adapter talks to one public API and converts its payloads into the
// canonical Advertisement shape. Loose JSON maps never leave this
// package.
package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"p2p-crisis-collector/internal/config"
	apperrors "p2p-crisis-collector/internal/errors"
	"p2p-crisis-collector/internal/models"
)

// Adapter is the common surface the orchestrator drives. CollectCountry
// gathers both sides of the book for one country and returns whatever it
// managed to fetch; a non-nil error means at least one side failed.
type Adapter interface {
	Platform() models.Platform
	CollectCountry(ctx context.Context, profile config.CountryProfile, asset string) ([]models.Advertisement, error)
}

// Client is the shared HTTP layer for all adapters. Requests are paced
// per host so one upstream's limiter never throttles another.
type Client struct {
	http *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient returns a client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		limiters: make(map[string]*rate.Limiter),
	}
}

// wait blocks until the per-host limiter admits the next request.
// The first call for a host installs a limiter at one request per
// interval with a burst of one.
func (c *Client) wait(ctx context.Context, host string, interval time.Duration) error {
	c.mu.Lock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(interval), 1)
		c.limiters[host] = lim
	}
	c.mu.Unlock()
	return lim.Wait(ctx)
}

// browser-ish headers; some upstreams reject obvious bot agents.
func setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json")
}

// GetJSON issues a rate-limited GET and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, platform models.Platform, rawURL string, params url.Values, interval time.Duration, out interface{}) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewTransportError(string(platform), rawURL, err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	if err := c.wait(ctx, u.Host, interval); err != nil {
		return apperrors.NewTransportError(string(platform), rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return apperrors.NewTransportError(string(platform), rawURL, err)
	}
	setCommonHeaders(req)

	return c.do(platform, req, out)
}

// PostJSON issues a rate-limited POST with a JSON body and decodes the
// response into out.
func (c *Client) PostJSON(ctx context.Context, platform models.Platform, rawURL string, payload interface{}, interval time.Duration, out interface{}) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewTransportError(string(platform), rawURL, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewParseError(string(platform), "encoding request", err)
	}

	if err := c.wait(ctx, u.Host, interval); err != nil {
		return apperrors.NewTransportError(string(platform), rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return apperrors.NewTransportError(string(platform), rawURL, err)
	}
	setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return c.do(platform, req, out)
}

func (c *Client) do(platform models.Platform, req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransportError(string(platform), req.URL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return apperrors.NewTransportError(string(platform), req.URL.String(),
			fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewParseError(string(platform), "decoding response", err)
	}
	return nil
}

// NormalizeSide maps an upstream side spelling onto the canonical trade
// types. Anything outside buy/sell is a validation error.
func NormalizeSide(side string) (models.TradeType, error) {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case "BUY":
		return models.TradeBuy, nil
	case "SELL":
		return models.TradeSell, nil
	}
	return "", apperrors.NewValidationError("trade_type", side, "must be buy or sell")
}

// safeFloat casts loosely typed JSON values to float64, defaulting to
// zero on anything unparseable.
func safeFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// safeInt is the integer counterpart of safeFloat.
func safeInt(v interface{}) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if ferr != nil {
				return 0
			}
			return int(f)
		}
		return n
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	}
	return 0
}

// str casts a JSON value to string, defaulting to empty.
func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// dig walks nested maps, returning nil when any step is missing.
func dig(m map[string]interface{}, keys ...string) interface{} {
	var cur interface{} = m
	for _, k := range keys {
		node, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = node[k]
	}
	return cur
}

// firstOf returns the first present key among aliases. Upstreams rename
// fields between API revisions; mapping tolerates the older spellings.
func firstOf(m map[string]interface{}, aliases ...string) interface{} {
	for _, k := range aliases {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
