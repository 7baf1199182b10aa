package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// FlowFilter narrows the flow-alert fetch. Zero values mean "not set" and
// are omitted from the request.
type FlowFilter struct {
	TickerSymbol string
	Limit        int
	MinPremium   int
	MinSize      int
	MaxDTE       int
	RuleNames    []string
}

// Client is a thin JSON-over-HTTP adapter for the market-data collaborator.
// It carries no market logic of its own: every response is handed to the
// schema normalizer and consumed as flat records.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new market data client
func NewClient(baseURL, apiKey string) *Client {
	// Configure custom HTTP transport for connection pooling
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Transport: transport,
			// Context controls the timeout.
		},
	}
}

// GetFlowAlerts fetches raw whale flow alerts matching the filter.
func (c *Client) GetFlowAlerts(ctx context.Context, filter FlowFilter) ([]Record, error) {
	params := url.Values{}
	if filter.TickerSymbol != "" {
		params.Set("ticker_symbol", filter.TickerSymbol)
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.MinPremium > 0 {
		params.Set("min_premium", strconv.Itoa(filter.MinPremium))
	}
	if filter.MinSize > 0 {
		params.Set("min_size", strconv.Itoa(filter.MinSize))
	}
	if filter.MaxDTE > 0 {
		params.Set("max_dte", strconv.Itoa(filter.MaxDTE))
	}
	for _, rule := range filter.RuleNames {
		params.Add("rule_name", rule)
	}

	body, err := c.getJSON(ctx, "/flow/alerts", params)
	if err != nil {
		return nil, fmt.Errorf("GetFlowAlerts: %w", err)
	}
	return NormalizeRecords(body), nil
}

// GetPriceSeries fetches daily price series with the requested indicator
// columns for all tickers in one call. The result maps ticker to its rows.
func (c *Client) GetPriceSeries(ctx context.Context, tickers []string, interval string, indicators []string) (map[string][]Record, error) {
	params := url.Values{}
	params.Set("tickers", strings.Join(tickers, ","))
	if interval != "" {
		params.Set("interval", interval)
	}
	if len(indicators) > 0 {
		params.Set("indicators", strings.Join(indicators, ","))
	}

	body, err := c.getJSON(ctx, "/price/series", params)
	if err != nil {
		return nil, fmt.Errorf("GetPriceSeries: %w", err)
	}

	parsed := gjson.ParseBytes(body)
	if data := parsed.Get("data"); data.Exists() && data.IsObject() {
		parsed = data
	}
	if !parsed.IsObject() {
		return map[string][]Record{}, nil
	}

	series := make(map[string][]Record)
	parsed.ForEach(func(ticker, rows gjson.Result) bool {
		series[ticker.String()] = normalizeResult(rows)
		return true
	})
	return series, nil
}

// GetFlowPerExpiry fetches per-expiry call/put premium aggregates for one
// ticker.
func (c *Client) GetFlowPerExpiry(ctx context.Context, ticker string) ([]Record, error) {
	params := url.Values{}
	params.Set("ticker", ticker)

	body, err := c.getJSON(ctx, "/flow/per-expiry", params)
	if err != nil {
		return nil, fmt.Errorf("GetFlowPerExpiry: %w", err)
	}
	return NormalizeRecords(body), nil
}

// GetOptionChain fetches the option chain for one (ticker, expiry) pair.
func (c *Client) GetOptionChain(ctx context.Context, ticker, expiry string) ([]Record, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	if expiry != "" {
		params.Set("expiry", expiry)
	}

	body, err := c.getJSON(ctx, "/options/chain", params)
	if err != nil {
		return nil, fmt.Errorf("GetOptionChain: %w", err)
	}
	return NormalizeRecords(body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
