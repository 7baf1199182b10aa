package app

import (
	"context"
	"fmt"

	"whale-radar/logger"
	"whale-radar/models"
)

// RankingAggregator prices every strategy payload through the payoff
// calculator in one batched call and merges the metrics back by
// ticker+title. Calculator ordering is preserved.
type RankingAggregator struct {
	calc PayoffCalculator
}

// NewRankingAggregator creates a new ranking aggregator
func NewRankingAggregator(calc PayoffCalculator) *RankingAggregator {
	return &RankingAggregator{calc: calc}
}

// Rank sends all payloads at once with visualization disabled. A failed
// batched call empties the stage. Payloads the calculator did not answer
// for come back as failed rows, never dropped.
func (r *RankingAggregator) Rank(ctx context.Context, payloads []models.StrategyPayload) ([]models.StrategyResult, error) {
	log := logger.WithComponent("ranking")

	if len(payloads) == 0 {
		log.Warn("No strategies to price")
		return nil, nil
	}
	if r.calc == nil {
		return nil, fmt.Errorf("payoff calculator is not configured")
	}

	log.Infof("Pricing %d strategies", len(payloads))
	results, err := r.calc.Price(ctx, payloads, false)
	if err != nil {
		log.Errorf("Strategy pricing failed: %v", err)
		return nil, nil
	}

	answered := make(map[string]bool, len(results))
	for _, res := range results {
		answered[resultKey(res.Ticker, res.Title)] = true
	}

	merged := results
	failed := 0
	for _, p := range payloads {
		if answered[resultKey(p.Ticker, p.Title)] {
			continue
		}
		merged = append(merged, models.StrategyResult{
			Ticker:  p.Ticker,
			Title:   p.Title,
			Success: false,
			Error:   "no result returned by calculator",
		})
		failed++
	}

	log.Infof("Pricing complete: %d results, %d unanswered", len(results), failed)
	return merged, nil
}

func resultKey(ticker, title string) string {
	return ticker + "|" + title
}
