// Package calculator is the adapter for the external options-payoff
// calculator. The pricing math lives on the other side of the wire; this
// client only ships payloads out and flattens metrics back.
package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whale-radar/models"
)

// Client is the payoff calculator HTTP client
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new payoff calculator client
func NewClient(baseURL, apiKey string) *Client {
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
		},
	}
}

type priceRequest struct {
	Strategies []models.StrategyPayload `json:"strategies"`
	Visualize  bool                     `json:"visualize"`
}

type strategyOutcome struct {
	Ticker     string           `json:"ticker"`
	Title      string           `json:"title"`
	StockPrice float64          `json:"stock_price"`
	Success    bool             `json:"success"`
	Error      string           `json:"error"`
	Metrics    *strategyMetrics `json:"strategy_metrics"`
}

type strategyMetrics struct {
	MaxProfit  float64 `json:"max_profit"`
	MaxLoss    float64 `json:"max_loss"`
	Breakeven  float64 `json:"breakeven"`
	RiskReward float64 `json:"risk_reward_ratio"`
}

// Price sends all strategy payloads in one call and returns the flattened
// per-strategy metrics in the calculator's order.
func (c *Client) Price(ctx context.Context, strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error) {
	reqBody := priceRequest{
		Strategies: strategies,
		Visualize:  visualize,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/strategies/price", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
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

	outcomes, err := decodeOutcomes(body)
	if err != nil {
		return nil, err
	}

	return flattenOutcomes(outcomes), nil
}

// decodeOutcomes accepts either a bare array or a {"results": [...]} wrapper.
func decodeOutcomes(body []byte) ([]strategyOutcome, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var outcomes []strategyOutcome
		if err := json.Unmarshal(trimmed, &outcomes); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return outcomes, nil
	}

	var wrapper struct {
		Results []strategyOutcome `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return wrapper.Results, nil
}

func flattenOutcomes(outcomes []strategyOutcome) []models.StrategyResult {
	results := make([]models.StrategyResult, 0, len(outcomes))
	for _, out := range outcomes {
		flat := models.StrategyResult{
			Ticker:     out.Ticker,
			Title:      out.Title,
			StockPrice: out.StockPrice,
			Success:    out.Success,
			Error:      out.Error,
		}
		if out.Metrics != nil {
			flat.MaxProfit = out.Metrics.MaxProfit
			flat.MaxLoss = out.Metrics.MaxLoss
			flat.Breakeven = out.Metrics.Breakeven
			flat.RRRatio = out.Metrics.RiskReward
		}
		results = append(results, flat)
	}
	return results
}
