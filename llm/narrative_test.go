package llm

import (
	"context"
	"testing"

	"whale-radar/models"
)

func TestParseNarrativeStrictFormat(t *testing.T) {
	analysis := `BINARY_EVENT: true
NARRATIVE: EARNINGS_PLAY
SENTIMENT_SCORE: 0.7
SUMMARY: Earnings are expected Thursday with elevated call buying.`

	n := parseNarrative("XYZ", analysis)
	if !n.BinaryEventWarning {
		t.Error("expected binary event warning")
	}
	if n.PrimaryNarrative != models.NarrativeEarningsPlay {
		t.Errorf("expected EARNINGS_PLAY, got %s", n.PrimaryNarrative)
	}
	if n.SentimentScore != 0.7 {
		t.Errorf("expected 0.7, got %v", n.SentimentScore)
	}
	if n.Summary != "Earnings are expected Thursday with elevated call buying." {
		t.Errorf("unexpected summary: %q", n.Summary)
	}
}

func TestParseNarrativeClampsScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{"above range", "SENTIMENT_SCORE: 3.5", 1.0},
		{"below range", "SENTIMENT_SCORE: -2.0", -1.0},
		{"in range", "SENTIMENT_SCORE: -0.25", -0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := parseNarrative("XYZ", "NARRATIVE: UNKNOWN\n"+tt.raw)
			if n.SentimentScore != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, n.SentimentScore)
			}
		})
	}
}

func TestParseNarrativeRejectsInvalidEnum(t *testing.T) {
	n := parseNarrative("XYZ", "NARRATIVE: MOON_SOON")
	if n.PrimaryNarrative != models.NarrativeUnknown {
		t.Errorf("invalid enum must fall back to UNKNOWN, got %s", n.PrimaryNarrative)
	}
}

func TestParseNarrativeKeywordFallback(t *testing.T) {
	t.Run("bullish keywords", func(t *testing.T) {
		n := parseNarrative("XYZ", "The tape shows silent accumulation and a broker upgrade.")
		if n.SentimentScore != 0.5 {
			t.Errorf("expected 0.5, got %v", n.SentimentScore)
		}
	})

	t.Run("bearish keywords", func(t *testing.T) {
		n := parseNarrative("XYZ", "Heavy distribution after the downgrade, very bearish setup.")
		if n.SentimentScore != -0.5 {
			t.Errorf("expected -0.5, got %v", n.SentimentScore)
		}
	})

	t.Run("earnings mention sets narrative", func(t *testing.T) {
		n := parseNarrative("XYZ", "Earnings are coming up next week.")
		if n.PrimaryNarrative != models.NarrativeEarningsPlay {
			t.Errorf("expected EARNINGS_PLAY, got %s", n.PrimaryNarrative)
		}
	})

	t.Run("weak signal stays neutral", func(t *testing.T) {
		n := parseNarrative("XYZ", "Slightly bullish tone in one note.")
		if n.SentimentScore != 0 {
			t.Errorf("expected neutral, got %v", n.SentimentScore)
		}
	})
}

func TestParseNarrativeDefaultSummary(t *testing.T) {
	n := parseNarrative("XYZ", "no structure at all")
	if n.Summary != "No structured summary returned." {
		t.Errorf("unexpected summary: %q", n.Summary)
	}
}

func TestClassifyWithoutClientFails(t *testing.T) {
	var c *Classifier
	if _, err := c.Classify(context.Background(), "XYZ"); err == nil {
		t.Fatal("expected error on nil classifier")
	}
}
