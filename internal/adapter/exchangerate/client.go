// Package exchangerate provides an HTTP client for the forex data API.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/RateForge/internal/port/cache"
	"github.com/Strob0t/RateForge/internal/port/rateprovider"
	"github.com/Strob0t/RateForge/internal/resilience"
)

// Client talks to an exchangerate.host-compatible API.
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
	breaker    *resilience.Breaker
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a forex API client.
func NewClient(baseURL, accessKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SetCache attaches a cache for live quotes with the given TTL.
func (c *Client) SetCache(cc cache.Cache, ttl time.Duration) {
	c.cache = cc
	c.cacheTTL = ttl
}

// apiError is the error object of a non-success API payload.
type apiError struct {
	Code int    `json:"code"`
	Info string `json:"info"`
}

// ratesResponse is the common shape of live and historical responses.
type ratesResponse struct {
	Success bool               `json:"success"`
	Source  string             `json:"source"`
	Quotes  map[string]float64 `json:"quotes"`
	Error   *apiError          `json:"error"`
}

// LiveRates returns current quotes for the given source currency.
func (c *Client) LiveRates(ctx context.Context, source string, currencies []string) (rateprovider.Quotes, error) {
	q := url.Values{}
	q.Set("source", source)
	if len(currencies) > 0 {
		q.Set("currencies", strings.Join(currencies, ","))
	}

	cacheKey := "live:" + source + ":" + strings.Join(currencies, ",")
	if cached, ok := c.cachedQuotes(ctx, cacheKey); ok {
		return cached, nil
	}

	var resp ratesResponse
	if err := c.getJSON(ctx, "/live", q, &resp); err != nil {
		return nil, fmt.Errorf("live rates: %w", err)
	}
	if !resp.Success {
		return nil, apiFailure("live rates", resp.Error)
	}

	c.storeQuotes(ctx, cacheKey, resp.Quotes)
	return resp.Quotes, nil
}

// HistoricalRates returns quotes for a specific date.
func (c *Client) HistoricalRates(ctx context.Context, date time.Time, source string, currencies []string) (rateprovider.Quotes, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	q.Set("source", source)
	if len(currencies) > 0 {
		q.Set("currencies", strings.Join(currencies, ","))
	}

	var resp ratesResponse
	if err := c.getJSON(ctx, "/historical", q, &resp); err != nil {
		return nil, fmt.Errorf("historical rates: %w", err)
	}
	if !resp.Success {
		return nil, apiFailure("historical rates", resp.Error)
	}
	return resp.Quotes, nil
}

// Convert converts amount from one currency to another at the live rate.
func (c *Client) Convert(ctx context.Context, from, to string, amount float64) (*rateprovider.Conversion, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))

	var resp struct {
		Success bool `json:"success"`
		Info    struct {
			Quote float64 `json:"quote"`
		} `json:"info"`
		Result float64   `json:"result"`
		Error  *apiError `json:"error"`
	}
	if err := c.getJSON(ctx, "/convert", q, &resp); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if !resp.Success {
		return nil, apiFailure("convert", resp.Error)
	}

	return &rateprovider.Conversion{
		From:   from,
		To:     to,
		Amount: amount,
		Rate:   resp.Info.Quote,
		Result: resp.Result,
	}, nil
}

// Timeframe returns daily quotes between start and end, keyed by date.
func (c *Client) Timeframe(ctx context.Context, start, end time.Time, source string, currencies []string) (map[string]rateprovider.Quotes, error) {
	q := url.Values{}
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	q.Set("source", source)
	if len(currencies) > 0 {
		q.Set("currencies", strings.Join(currencies, ","))
	}

	var resp struct {
		Success bool                          `json:"success"`
		Quotes  map[string]map[string]float64 `json:"quotes"`
		Error   *apiError                     `json:"error"`
	}
	if err := c.getJSON(ctx, "/timeframe", q, &resp); err != nil {
		return nil, fmt.Errorf("timeframe: %w", err)
	}
	if !resp.Success {
		return nil, apiFailure("timeframe", resp.Error)
	}

	out := make(map[string]rateprovider.Quotes, len(resp.Quotes))
	for date, quotes := range resp.Quotes {
		out[date] = quotes
	}
	return out, nil
}

func apiFailure(op string, e *apiError) error {
	if e == nil {
		return fmt.Errorf("%s: API reported failure", op)
	}
	return fmt.Errorf("%s: API error %d: %s", op, e.Code, e.Info)
}

func (c *Client) cachedQuotes(ctx context.Context, key string) (rateprovider.Quotes, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, found, err := c.cache.Get(ctx, key)
	if err != nil || !found {
		return nil, false
	}
	var quotes rateprovider.Quotes
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, false
	}
	return quotes, true
}

func (c *Client) storeQuotes(ctx context.Context, key string, quotes rateprovider.Quotes) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(quotes)
	if err != nil {
		return
	}
	_ = c.cache.Set(ctx, key, data, c.cacheTTL)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("access_key", c.accessKey)

	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("forex API error %d: %s", resp.StatusCode, string(data))
		}

		return json.Unmarshal(data, out)
	}

	if c.breaker != nil {
		return c.breaker.Execute(call)
	}
	return call()
}
