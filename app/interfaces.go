package app

import (
	"context"

	"whale-radar/llm"
	"whale-radar/marketdata"
	"whale-radar/models"
)

// MarketDataProvider is the market-data collaborator contract consumed by
// the pipeline stages. Implementations live outside the core; the stages
// only see normalized records.
type MarketDataProvider interface {
	GetFlowAlerts(ctx context.Context, filter marketdata.FlowFilter) ([]marketdata.Record, error)
	GetPriceSeries(ctx context.Context, tickers []string, interval string, indicators []string) (map[string][]marketdata.Record, error)
	GetFlowPerExpiry(ctx context.Context, ticker string) ([]marketdata.Record, error)
	GetOptionChain(ctx context.Context, ticker, expiry string) ([]marketdata.Record, error)
}

// NarrativeClassifier is the external narrative/risk classifier contract.
// Classify may fail per ticker; callers degrade to neutral defaults.
type NarrativeClassifier interface {
	Classify(ctx context.Context, ticker string) (*llm.Narrative, error)
}

// PayoffCalculator is the external payoff calculator contract.
type PayoffCalculator interface {
	Price(ctx context.Context, strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error)
}
