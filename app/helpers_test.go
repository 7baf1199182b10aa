package app

import (
	"context"
	"fmt"

	"whale-radar/llm"
	"whale-radar/marketdata"
	"whale-radar/models"
)

// fakeMarket implements MarketDataProvider with per-method function hooks.
type fakeMarket struct {
	flowAlerts    func(filter marketdata.FlowFilter) ([]marketdata.Record, error)
	priceSeries   func(tickers []string) (map[string][]marketdata.Record, error)
	flowPerExpiry func(ticker string) ([]marketdata.Record, error)
	optionChain   func(ticker, expiry string) ([]marketdata.Record, error)
}

func (f *fakeMarket) GetFlowAlerts(_ context.Context, filter marketdata.FlowFilter) ([]marketdata.Record, error) {
	if f.flowAlerts == nil {
		return nil, nil
	}
	return f.flowAlerts(filter)
}

func (f *fakeMarket) GetPriceSeries(_ context.Context, tickers []string, _ string, _ []string) (map[string][]marketdata.Record, error) {
	if f.priceSeries == nil {
		return nil, nil
	}
	return f.priceSeries(tickers)
}

func (f *fakeMarket) GetFlowPerExpiry(_ context.Context, ticker string) ([]marketdata.Record, error) {
	if f.flowPerExpiry == nil {
		return nil, nil
	}
	return f.flowPerExpiry(ticker)
}

func (f *fakeMarket) GetOptionChain(_ context.Context, ticker, expiry string) ([]marketdata.Record, error) {
	if f.optionChain == nil {
		return nil, nil
	}
	return f.optionChain(ticker, expiry)
}

// fakeClassifier implements NarrativeClassifier.
type fakeClassifier struct {
	classify func(ticker string) (*llm.Narrative, error)
}

func (f *fakeClassifier) Classify(_ context.Context, ticker string) (*llm.Narrative, error) {
	return f.classify(ticker)
}

// fakeCalculator implements PayoffCalculator.
type fakeCalculator struct {
	price func(strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error)
}

func (f *fakeCalculator) Price(_ context.Context, strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error) {
	return f.price(strategies, visualize)
}

// contract builds an option chain record with the common flat columns.
func contract(contractType string, strike, delta, iv, ask float64) marketdata.Record {
	return marketdata.Record{
		"contract_type":      contractType,
		"strike_price":       strike,
		"delta":              delta,
		"implied_volatility": iv,
		"ask":                ask,
	}
}

var errBoom = fmt.Errorf("boom")
