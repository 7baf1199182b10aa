package app

import (
	"context"
	"reflect"
	"testing"

	"whale-radar/models"
)

func spreadPayload(ticker, title string) models.StrategyPayload {
	return models.StrategyPayload{
		Title:  title,
		Ticker: ticker,
		Legs:   []models.StrategyLeg{{Strike: 101, Expiration: "2024-07-05", Type: "call", Action: "buy", Premium: 2.5}},
	}
}

func TestRankMergesCalculatorResults(t *testing.T) {
	var gotVisualize bool
	calc := &fakeCalculator{
		price: func(strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error) {
			gotVisualize = visualize
			return []models.StrategyResult{
				{Ticker: "XYZ", Title: strategies[0].Title, StockPrice: 100, Success: true, MaxProfit: 450, MaxLoss: 250, Breakeven: 103.5, RRRatio: 1.8},
			}, nil
		},
	}

	ranker := NewRankingAggregator(calc)
	payloads := []models.StrategyPayload{spreadPayload("XYZ", "XYZ Call Spread 101/108 (Original (Short Term))")}

	results, err := ranker.Rank(context.Background(), payloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotVisualize {
		t.Error("visualization must be disabled")
	}
	if len(results) != 1 || !results[0].Success || results[0].RRRatio != 1.8 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestRankRetainsFailedRows(t *testing.T) {
	calc := &fakeCalculator{
		price: func(strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error) {
			return []models.StrategyResult{
				{Ticker: "XYZ", Title: strategies[0].Title, Success: false, Error: "illiquid legs"},
			}, nil
		},
	}

	ranker := NewRankingAggregator(calc)
	payloads := []models.StrategyPayload{spreadPayload("XYZ", "XYZ Long CALL @ 100 (Original (Short Term))")}

	results, err := ranker.Rank(context.Background(), payloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Success || results[0].Error != "illiquid legs" {
		t.Fatalf("failed rows must be retained with their error: %+v", results)
	}
}

func TestRankBackfillsUnansweredPayloads(t *testing.T) {
	calc := &fakeCalculator{
		price: func(strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error) {
			// Calculator only answers the first payload.
			return []models.StrategyResult{
				{Ticker: strategies[0].Ticker, Title: strategies[0].Title, Success: true},
			}, nil
		},
	}

	ranker := NewRankingAggregator(calc)
	payloads := []models.StrategyPayload{
		spreadPayload("AAA", "AAA Long CALL @ 50 (Original (Short Term))"),
		spreadPayload("BBB", "BBB Long CALL @ 60 (Original (Short Term))"),
	}

	results, err := ranker.Rank(context.Background(), payloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(results))
	}
	if results[0].Ticker != "AAA" || !results[0].Success {
		t.Errorf("calculator order must be preserved: %+v", results[0])
	}
	if results[1].Ticker != "BBB" || results[1].Success || results[1].Error == "" {
		t.Errorf("unanswered payload must come back failed: %+v", results[1])
	}
}

func TestRankIdempotent(t *testing.T) {
	calc := &fakeCalculator{
		price: func(strategies []models.StrategyPayload, visualize bool) ([]models.StrategyResult, error) {
			var out []models.StrategyResult
			for _, s := range strategies {
				out = append(out, models.StrategyResult{Ticker: s.Ticker, Title: s.Title, Success: true, MaxProfit: 100})
			}
			return out, nil
		},
	}

	ranker := NewRankingAggregator(calc)
	payloads := []models.StrategyPayload{
		spreadPayload("AAA", "AAA Long CALL @ 50 (Original (Short Term))"),
		spreadPayload("BBB", "BBB Long CALL @ 60 (Original (Short Term))"),
	}

	first, err := ranker.Rank(context.Background(), payloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ranker.Rank(context.Background(), payloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ranking is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestRankBatchFailureEmptiesStage(t *testing.T) {
	calc := &fakeCalculator{
		price: func([]models.StrategyPayload, bool) ([]models.StrategyResult, error) {
			return nil, errBoom
		},
	}

	ranker := NewRankingAggregator(calc)
	results, err := ranker.Rank(context.Background(), []models.StrategyPayload{spreadPayload("AAA", "t")})
	if err != nil {
		t.Fatalf("batch failure must not be fatal: %v", err)
	}
	if results != nil {
		t.Errorf("expected empty output, got %+v", results)
	}
}

func TestRankMissingCalculatorIsFatal(t *testing.T) {
	ranker := NewRankingAggregator(nil)
	if _, err := ranker.Rank(context.Background(), []models.StrategyPayload{spreadPayload("AAA", "t")}); err == nil {
		t.Fatal("expected configuration error")
	}
}
