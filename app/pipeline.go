package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"whale-radar/logger"
	"whale-radar/marketdata"
	"whale-radar/models"
)

// PipelineResult holds every intermediate table of one run so callers can
// inspect each stage.
type PipelineResult struct {
	RunID      string
	Alerts     []marketdata.Record
	Clusters   []models.WhaleCluster
	Signals    []models.Signal
	Candidates []models.TradeCandidate
	Enriched   []models.TradeCandidate
	Optimized  []models.OptimizedStructure
	Payloads   []models.StrategyPayload
	Results    []models.StrategyResult
}

// Pipeline wires the six stages together. Stages run strictly in sequence;
// an empty stage output flows through as empty downstream input, only a
// missing collaborator aborts the run.
type Pipeline struct {
	market     MarketDataProvider
	clusters   *ClusterAggregator
	sentiment  *SentimentFilter
	ivSelector *IVStrikeSelector
	narrative  *NarrativeEnricher
	optimizer  *StrikeOptimizer
	ranking    *RankingAggregator
}

// NewPipeline assembles a pipeline from its collaborators.
func NewPipeline(market MarketDataProvider, sentiment *SentimentFilter, ivSelector *IVStrikeSelector, narrative *NarrativeEnricher, optimizer *StrikeOptimizer, ranking *RankingAggregator) *Pipeline {
	return &Pipeline{
		market:     market,
		clusters:   NewClusterAggregator(),
		sentiment:  sentiment,
		ivSelector: ivSelector,
		narrative:  narrative,
		optimizer:  optimizer,
		ranking:    ranking,
	}
}

// Run executes the full pipeline for one filter configuration.
func (p *Pipeline) Run(ctx context.Context, filter marketdata.FlowFilter) (*PipelineResult, error) {
	log := logger.WithComponent("pipeline")

	if p.market == nil {
		return nil, fmt.Errorf("market data provider is not configured")
	}

	result := &PipelineResult{RunID: uuid.New().String()}
	log.Infof("Starting pipeline run %s", result.RunID)

	alerts, err := p.market.GetFlowAlerts(ctx, filter)
	if err != nil {
		log.Errorf("Flow alert fetch failed: %v", err)
	} else if len(alerts) == 0 {
		log.Warn("No flow alerts found with current filters")
	} else {
		log.Infof("Fetched %d flow alerts", len(alerts))
	}
	result.Alerts = alerts

	result.Clusters = p.clusters.Build(alerts)

	result.Signals, err = p.sentiment.Analyze(ctx, result.Clusters)
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis: %w", err)
	}

	result.Candidates, err = p.ivSelector.Select(ctx, result.Signals)
	if err != nil {
		return nil, fmt.Errorf("strike selection: %w", err)
	}

	result.Enriched = p.narrative.Enrich(ctx, result.Candidates)

	result.Optimized, result.Payloads, err = p.optimizer.Optimize(ctx, result.Enriched)
	if err != nil {
		return nil, fmt.Errorf("strike optimization: %w", err)
	}

	result.Results, err = p.ranking.Rank(ctx, result.Payloads)
	if err != nil {
		return nil, fmt.Errorf("strategy pricing: %w", err)
	}

	log.Infof("Pipeline run %s complete: %d alerts, %d clusters, %d signals, %d candidates, %d structures, %d priced",
		result.RunID, len(result.Alerts), len(result.Clusters), len(result.Signals), len(result.Candidates), len(result.Optimized), len(result.Results))
	return result, nil
}
