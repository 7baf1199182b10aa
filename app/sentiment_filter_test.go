package app

import (
	"context"
	"testing"

	"whale-radar/marketdata"
	"whale-radar/models"
)

func TestClassifySentiment(t *testing.T) {
	tests := []struct {
		name        string
		callPremium float64
		putPremium  float64
		expected    models.Sentiment
	}{
		{"calls clear the 2x bar", 300000, 100000, models.SentimentBullish},
		{"puts clear the 2x bar", 100000, 300000, models.SentimentBearish},
		{"exactly 2x is neutral", 200000, 100000, models.SentimentNeutral},
		{"balanced flow", 150000, 140000, models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySentiment(tt.callPremium, tt.putPremium); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestClassifySentimentSymmetry(t *testing.T) {
	pairs := [][2]float64{
		{300000, 100000},
		{500000, 50000},
		{250001, 125000},
	}
	for _, p := range pairs {
		forward := classifySentiment(p[0], p[1])
		flipped := classifySentiment(p[1], p[0])
		if forward != models.SentimentBullish || flipped != models.SentimentBearish {
			t.Errorf("asymmetric verdicts for %v: %v / %v", p, forward, flipped)
		}
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		close    float64
		sma20    float64
		expected models.Trend
	}{
		{"above band", 103, 100, models.TrendUp},
		{"below band", 97, 100, models.TrendDown},
		{"inside band high", 101.9, 100, models.TrendFlat},
		{"inside band low", 98.1, 100, models.TrendFlat},
		{"on the average", 100, 100, models.TrendFlat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTrend(tt.close, tt.sma20); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestApplyHedgeTableExhaustive(t *testing.T) {
	tests := []struct {
		sentiment  models.Sentiment
		trend      models.Trend
		signalType string
		confidence models.Confidence
		isHedge    bool
	}{
		{models.SentimentBullish, models.TrendUp, models.SignalTrendFollowingLong, models.ConfidenceMedium, false},
		{models.SentimentBullish, models.TrendFlat, models.SignalBreakoutLong, models.ConfidenceHigh, false},
		{models.SentimentBullish, models.TrendDown, "", "", true},
		{models.SentimentBearish, models.TrendUp, "", "", true},
		{models.SentimentBearish, models.TrendFlat, models.SignalBreakdownShort, models.ConfidenceHigh, false},
		{models.SentimentBearish, models.TrendDown, models.SignalTrendFollowingShort, models.ConfidenceMedium, false},
	}

	for _, tt := range tests {
		signalType, confidence, isHedge := applyHedgeTable(tt.sentiment, tt.trend)
		if signalType != tt.signalType || confidence != tt.confidence || isHedge != tt.isHedge {
			t.Errorf("%v/%v: expected (%q,%q,%v), got (%q,%q,%v)",
				tt.sentiment, tt.trend, tt.signalType, tt.confidence, tt.isHedge, signalType, confidence, isHedge)
		}
	}
}

func TestAnalyzeRejectsHedges(t *testing.T) {
	// Bullish flow (calls 3:1) against a downtrend must be discarded.
	market := &fakeMarket{
		priceSeries: func([]string) (map[string][]marketdata.Record, error) {
			return map[string][]marketdata.Record{
				"XYZ": {{"close": 95.0, "SMA_20": 100.0}},
			}, nil
		},
		flowPerExpiry: func(string) ([]marketdata.Record, error) {
			return []marketdata.Record{{"call_premium": 300000.0, "put_premium": 100000.0}}, nil
		},
	}

	filter := NewSentimentFilter(market)
	clusters := []models.WhaleCluster{
		{Ticker: "XYZ", Direction: models.DirectionCall, TotalPremium: 300000, WhaleStrikes: []float64{100}},
	}

	signals, err := filter.Analyze(context.Background(), clusters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("expected hedge rejection, got %d signals", len(signals))
	}
}

func TestAnalyzeFansOutPerCluster(t *testing.T) {
	market := &fakeMarket{
		priceSeries: func([]string) (map[string][]marketdata.Record, error) {
			return map[string][]marketdata.Record{
				"XYZ": {{"close": 100.5, "SMA_20": 100.0}},
			}, nil
		},
		flowPerExpiry: func(string) ([]marketdata.Record, error) {
			return []marketdata.Record{{"call_premium": 300000.0, "put_premium": 100000.0}}, nil
		},
	}

	filter := NewSentimentFilter(market)
	clusters := []models.WhaleCluster{
		{Ticker: "XYZ", Direction: models.DirectionCall, Expiry: "2024-06-21", TotalPremium: 200000},
		{Ticker: "XYZ", Direction: models.DirectionCall, Expiry: "2024-07-19", TotalPremium: 100000},
	}

	signals, err := filter.Analyze(context.Background(), clusters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	for _, s := range signals {
		if s.SignalType != models.SignalBreakoutLong || s.Confidence != models.ConfidenceHigh {
			t.Errorf("expected breakout long high confidence, got %+v", s)
		}
		if s.FlowSentiment != models.SentimentBullish || s.PriceTrend != models.TrendFlat {
			t.Errorf("unexpected verdict fields: %+v", s)
		}
	}
}

func TestAnalyzeZeroPremiumSubstitution(t *testing.T) {
	// A ticker with zero put premium must not divide-by-zero or misclassify;
	// zero is substituted with 1 so any real call flow reads bullish.
	market := &fakeMarket{
		priceSeries: func([]string) (map[string][]marketdata.Record, error) {
			return map[string][]marketdata.Record{
				"NOPUT": {{"close": 51.5, "SMA_20": 50.0}},
			}, nil
		},
		flowPerExpiry: func(string) ([]marketdata.Record, error) {
			return []marketdata.Record{{"call_premium": 100000.0, "put_premium": 0.0}}, nil
		},
	}

	filter := NewSentimentFilter(market)
	clusters := []models.WhaleCluster{{Ticker: "NOPUT", Direction: models.DirectionCall, TotalPremium: 100000}}

	signals, err := filter.Analyze(context.Background(), clusters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	if signals[0].PutPremium != 1 {
		t.Errorf("expected substituted put premium 1, got %v", signals[0].PutPremium)
	}
	if signals[0].SignalType != models.SignalTrendFollowingLong {
		t.Errorf("expected trend following long, got %s", signals[0].SignalType)
	}
}

func TestAnalyzePriceSeriesFailureEmptiesStage(t *testing.T) {
	market := &fakeMarket{
		priceSeries: func([]string) (map[string][]marketdata.Record, error) {
			return nil, errBoom
		},
	}

	filter := NewSentimentFilter(market)
	clusters := []models.WhaleCluster{{Ticker: "XYZ", Direction: models.DirectionCall}}

	signals, err := filter.Analyze(context.Background(), clusters)
	if err != nil {
		t.Fatalf("batch failure must not be fatal: %v", err)
	}
	if signals != nil {
		t.Errorf("expected empty output, got %+v", signals)
	}
}

func TestAnalyzeMissingProviderIsFatal(t *testing.T) {
	filter := NewSentimentFilter(nil)
	clusters := []models.WhaleCluster{{Ticker: "XYZ"}}
	if _, err := filter.Analyze(context.Background(), clusters); err == nil {
		t.Fatal("expected configuration error")
	}
}
