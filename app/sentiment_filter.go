package app

import (
	"context"
	"fmt"
	"sort"

	"whale-radar/logger"
	"whale-radar/models"
)

// SentimentFilter computes flow sentiment per ticker, cross-checks it
// against the price trend and rejects clusters that look like hedges rather
// than directional bets.
type SentimentFilter struct {
	market MarketDataProvider
}

// NewSentimentFilter creates a new sentiment filter
func NewSentimentFilter(market MarketDataProvider) *SentimentFilter {
	return &SentimentFilter{market: market}
}

// Analyze turns clusters into signals. Every accepted ticker fans out to one
// signal per cluster. A failed price-series fetch empties the stage; the
// error return is reserved for missing collaborators.
func (f *SentimentFilter) Analyze(ctx context.Context, clusters []models.WhaleCluster) ([]models.Signal, error) {
	log := logger.WithComponent("sentiment")

	if len(clusters) == 0 {
		log.Warn("No clusters to analyze")
		return nil, nil
	}
	if f.market == nil {
		return nil, fmt.Errorf("market data provider is not configured")
	}

	tickers := uniqueTickers(clusters)
	log.Infof("Analyzing %d unique tickers", len(tickers))

	// One batched call for all price series; losing it means losing the
	// whole stage, not crashing the run.
	series, err := f.market.GetPriceSeries(ctx, tickers, "day", []string{"TREND", "VOLATILITY"})
	if err != nil {
		log.Errorf("Price series fetch failed: %v", err)
		return nil, nil
	}

	var signals []models.Signal
	rejected := 0
	skipped := 0

	for _, ticker := range tickers {
		flow, err := f.market.GetFlowPerExpiry(ctx, ticker)
		if err != nil {
			log.Warnf("Flow fetch failed for %s: %v", ticker, err)
			skipped++
			continue
		}
		if len(flow) == 0 {
			skipped++
			continue
		}

		var callPremium, putPremium float64
		for _, row := range flow {
			callPremium += row.FloatOr("call_premium", 0)
			putPremium += row.FloatOr("put_premium", 0)
		}
		// Zero volume is treated as negligible, not as a real trade.
		if callPremium == 0 {
			callPremium = 1
		}
		if putPremium == 0 {
			putPremium = 1
		}

		sentiment := classifySentiment(callPremium, putPremium)
		if sentiment == models.SentimentNeutral {
			skipped++
			continue
		}

		rows := series[ticker]
		if len(rows) == 0 {
			log.Warnf("No price data for %s", ticker)
			skipped++
			continue
		}
		last := rows[len(rows)-1]
		close, ok := last.Float("close")
		if !ok {
			skipped++
			continue
		}
		sma20 := last.FloatOr("SMA_20", close)
		trend := classifyTrend(close, sma20)

		signalType, confidence, isHedge := applyHedgeTable(sentiment, trend)
		if isHedge {
			log.Infof("Rejected %s: %s flow against %s trend (hedge)", ticker, sentiment, trend)
			rejected++
			continue
		}

		for _, cluster := range clusters {
			if cluster.Ticker != ticker {
				continue
			}
			signals = append(signals, models.Signal{
				Ticker:        ticker,
				Direction:     cluster.Direction,
				Expiry:        cluster.Expiry,
				TotalPremium:  cluster.TotalPremium,
				TradeCount:    cluster.TradeCount,
				VolumeOI:      cluster.VolumeOI,
				WhaleStrikes:  cluster.WhaleStrikes,
				SignalType:    signalType,
				Confidence:    confidence,
				Price:         close,
				SMA20:         sma20,
				PriceTrend:    trend,
				FlowSentiment: sentiment,
				CallPremium:   callPremium,
				PutPremium:    putPremium,
			})
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		ri, rj := signals[i].Confidence.Rank(), signals[j].Confidence.Rank()
		if ri != rj {
			return ri > rj
		}
		return signals[i].TotalPremium > signals[j].TotalPremium
	})

	log.Infof("Sentiment analysis complete: %d signals, %d hedges rejected, %d skipped", len(signals), rejected, skipped)
	return signals, nil
}

// classifySentiment applies the 2:1 premium ratio rule.
func classifySentiment(callPremium, putPremium float64) models.Sentiment {
	switch {
	case callPremium > putPremium*2:
		return models.SentimentBullish
	case putPremium > callPremium*2:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// classifyTrend compares the close against a ±2% band around the 20-period
// moving average.
func classifyTrend(close, sma20 float64) models.Trend {
	switch {
	case close > sma20*1.02:
		return models.TrendUp
	case close < sma20*0.98:
		return models.TrendDown
	default:
		return models.TrendFlat
	}
}

// applyHedgeTable maps (sentiment, trend) to the signal verdict. Flow
// leaning against the trend is presumed protective hedging.
func applyHedgeTable(sentiment models.Sentiment, trend models.Trend) (signalType string, confidence models.Confidence, isHedge bool) {
	switch sentiment {
	case models.SentimentBullish:
		switch trend {
		case models.TrendDown:
			return "", "", true // short covering / hedge
		case models.TrendUp:
			return models.SignalTrendFollowingLong, models.ConfidenceMedium, false
		default:
			return models.SignalBreakoutLong, models.ConfidenceHigh, false
		}
	case models.SentimentBearish:
		switch trend {
		case models.TrendUp:
			return "", "", true // long protection
		case models.TrendDown:
			return models.SignalTrendFollowingShort, models.ConfidenceMedium, false
		default:
			return models.SignalBreakdownShort, models.ConfidenceHigh, false
		}
	}
	return "", "", true
}

func uniqueTickers(clusters []models.WhaleCluster) []string {
	seen := make(map[string]bool, len(clusters))
	var tickers []string
	for _, c := range clusters {
		if !seen[c.Ticker] {
			seen[c.Ticker] = true
			tickers = append(tickers, c.Ticker)
		}
	}
	return tickers
}
