package app

import (
	"context"

	"whale-radar/batch"
	"whale-radar/cache"
	"whale-radar/llm"
	"whale-radar/logger"
	"whale-radar/models"
)

// NarrativeEnricher annotates candidates with the news narrative for their
// ticker. It only ever adds fields; a failed or disabled classifier degrades
// to defaults and never drops a candidate.
type NarrativeEnricher struct {
	classifier NarrativeClassifier
	cache      *cache.NarrativeCache
	workers    int
}

// NewNarrativeEnricher creates an enricher. classifier may be nil when the
// LLM is disabled; cache may be nil.
func NewNarrativeEnricher(classifier NarrativeClassifier, narrativeCache *cache.NarrativeCache, workers int) *NarrativeEnricher {
	return &NarrativeEnricher{classifier: classifier, cache: narrativeCache, workers: workers}
}

// Enrich classifies each distinct ticker once and merges the result onto
// every candidate of that ticker.
func (e *NarrativeEnricher) Enrich(ctx context.Context, candidates []models.TradeCandidate) []models.TradeCandidate {
	log := logger.WithComponent("narrative")

	if len(candidates) == 0 {
		return candidates
	}
	if e.classifier == nil {
		log.Info("Narrative classifier disabled, applying defaults")
		return applyNarratives(candidates, nil)
	}

	tickers := make(map[string]bool, len(candidates))
	var tasks []batch.Task[*llm.Narrative]
	for _, c := range candidates {
		if tickers[c.Ticker] {
			continue
		}
		tickers[c.Ticker] = true
		ticker := c.Ticker
		tasks = append(tasks, batch.Task[*llm.Narrative]{
			Key: ticker,
			Run: func(ctx context.Context) (*llm.Narrative, error) {
				return e.classify(ctx, ticker)
			},
		})
	}
	log.Infof("Classifying narratives for %d tickers", len(tasks))

	results, err := batch.Execute(ctx, e.workers, tasks)
	if err != nil {
		log.Errorf("Narrative batch failed: %v", err)
		return applyNarratives(candidates, nil)
	}

	narratives := make(map[string]*llm.Narrative, len(results))
	failed := 0
	for ticker, res := range results {
		if !res.OK() || res.Value == nil {
			log.Warnf("Narrative classification failed for %s: %v", ticker, res.Err)
			failed++
			continue
		}
		narratives[ticker] = res.Value
	}

	log.Infof("Narrative enrichment complete: %d classified, %d defaulted", len(narratives), failed)
	return applyNarratives(candidates, narratives)
}

func (e *NarrativeEnricher) classify(ctx context.Context, ticker string) (*llm.Narrative, error) {
	if cached, ok := e.cache.Get(ctx, ticker); ok {
		return cached, nil
	}
	narrative, err := e.classifier.Classify(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, ticker, narrative); err == nil {
		logger.WithComponent("narrative").Debugf("Cached narrative for %s", ticker)
	}
	return narrative, nil
}

// applyNarratives merges per-ticker narratives onto candidates. Tickers
// absent from the map get the failure default.
func applyNarratives(candidates []models.TradeCandidate, narratives map[string]*llm.Narrative) []models.TradeCandidate {
	out := make([]models.TradeCandidate, len(candidates))
	for i, c := range candidates {
		if n, ok := narratives[c.Ticker]; ok {
			c.BinaryRisk = n.BinaryEventWarning
			c.NarrativeType = n.PrimaryNarrative
			c.NewsSentiment = n.SentimentScore
			c.NewsSummary = n.Summary
		} else {
			c.BinaryRisk = false
			c.NarrativeType = models.NarrativeUnknownError
			c.NewsSentiment = 0.0
			c.NewsSummary = "Analysis failed."
		}
		out[i] = c
	}
	return out
}
