package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"whale-radar/cache"
	"whale-radar/calculator"
	"whale-radar/config"
	"whale-radar/llm"
	"whale-radar/logger"
	"whale-radar/marketdata"
)

// App represents the main application
type App struct {
	config   *config.Config
	redis    *cache.RedisClient
	pipeline *Pipeline
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
	}
}

// Start wires the collaborators, runs the pipeline once and reports the
// per-stage counts.
func (a *App) Start() error {
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Connecting to Redis...")
	a.redis = cache.NewRedisClient(a.config.RedisHost, a.config.RedisPort, a.config.RedisPassword)
	if a.redis == nil {
		log.Warn("Redis connection failed. Narrative caching disabled.")
	}
	defer a.Close()

	market := marketdata.NewClient(a.config.MarketDataURL, a.config.MarketDataAPIKey)
	calc := calculator.NewClient(a.config.CalculatorURL, a.config.CalculatorAPIKey)

	var classifier NarrativeClassifier
	if a.config.LLM.Enabled {
		llmClient := llm.NewClient(a.config.LLM.Endpoint, a.config.LLM.APIKey, a.config.LLM.Model)
		classifier = llm.NewClassifier(llmClient)
		log.Infof("Narrative classification ENABLED (model: %s)", a.config.LLM.Model)
	} else {
		log.Info("Narrative classification DISABLED")
	}

	narrativeCache := cache.NewNarrativeCache(a.redis, time.Duration(a.config.Pipeline.NarrativeCacheTTLMinutes)*time.Minute)

	workers := a.config.Pipeline.BatchWorkers
	a.pipeline = NewPipeline(
		market,
		NewSentimentFilter(market),
		NewIVStrikeSelector(market, a.config.Pipeline.IVPercentileThreshold, workers),
		NewNarrativeEnricher(classifier, narrativeCache, workers),
		NewStrikeOptimizer(market, workers),
		NewRankingAggregator(calc),
	)

	filter := marketdata.FlowFilter{
		TickerSymbol: a.config.Pipeline.TickerSymbol,
		Limit:        a.config.Pipeline.Limit,
		MinPremium:   a.config.Pipeline.MinPremium,
		MinSize:      a.config.Pipeline.MinSize,
		MaxDTE:       a.config.Pipeline.MaxDTE,
		RuleNames:    a.config.Pipeline.RuleNames,
	}

	result, err := a.pipeline.Run(ctx, filter)
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"run_id":     result.RunID,
		"alerts":     len(result.Alerts),
		"clusters":   len(result.Clusters),
		"signals":    len(result.Signals),
		"candidates": len(result.Candidates),
		"structures": len(result.Optimized),
		"priced":     len(result.Results),
	}).Info("Pipeline finished")

	for _, res := range result.Results {
		row := log.WithFields(logger.Fields{
			"ticker":     res.Ticker,
			"title":      res.Title,
			"max_profit": res.MaxProfit,
			"max_loss":   res.MaxLoss,
			"breakeven":  res.Breakeven,
			"rr_ratio":   res.RRRatio,
		})
		if res.Success {
			row.Info("Strategy priced")
		} else {
			row.WithField("error", res.Error).Warn("Strategy pricing failed")
		}
	}
	return nil
}

// Close releases shared resources.
func (a *App) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}
