package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"whale-radar/models"
)

// Narrative is the structured result of one ticker classification.
type Narrative struct {
	Ticker             string               `json:"ticker"`
	BinaryEventWarning bool                 `json:"binary_event_warning"`
	PrimaryNarrative   models.NarrativeType `json:"primary_narrative"`
	SentimentScore     float64              `json:"sentiment_score"`
	Summary            string               `json:"summary"`
}

// Classifier turns free-form LLM analysis into a Narrative. The model itself
// stays external; this adapter only builds the instruction and parses the
// strict line format back out.
type Classifier struct {
	client *Client
}

// NewClassifier creates a new narrative classifier
func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

// Classify requests a narrative classification for one ticker.
func (c *Classifier) Classify(ctx context.Context, ticker string) (*Narrative, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("llm client is not configured")
	}

	prompt := buildNarrativePrompt(ticker)
	analysis, err := c.client.Analyze(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("narrative analysis failed for %s: %w", ticker, err)
	}

	return parseNarrative(ticker, analysis), nil
}

func buildNarrativePrompt(ticker string) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString(fmt.Sprintf("Analyze recent news, catalysts, earnings and filings context for the stock %s.\n\n", ticker))
	sb.WriteString("Tasks:\n")
	sb.WriteString("1. Determine if a specific BINARY EVENT (earnings, FDA decision, lawsuit verdict) is expected in the next 7 days.\n")
	sb.WriteString("2. Identify the primary narrative driver. Choose exactly one of: EARNINGS_PLAY, CATALYST_DRIVEN, MACRO_SECTOR, SILENT_ACCUMULATION, BAD_NEWS_DUMP, UNKNOWN.\n")
	sb.WriteString("3. Assess sentiment from -1.0 (bearish) to 1.0 (bullish).\n")
	sb.WriteString("4. Summarize the news context in one sentence.\n\n")
	sb.WriteString("You must answer with this EXACT format and nothing else:\n")
	sb.WriteString("BINARY_EVENT: [true | false]\n")
	sb.WriteString("NARRATIVE: [one of the six values]\n")
	sb.WriteString("SENTIMENT_SCORE: [-1.0 .. 1.0]\n")
	sb.WriteString("SUMMARY: [one sentence]")

	return sb.String()
}

// parseNarrative extracts the strict line format from the model output and
// falls back to keyword scoring when the model ignored it.
func parseNarrative(ticker, analysis string) *Narrative {
	narrative := &Narrative{
		Ticker:           ticker,
		PrimaryNarrative: models.NarrativeUnknown,
	}

	foundNarrative := false
	for _, line := range strings.Split(analysis, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "BINARY_EVENT:"):
			v := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "BINARY_EVENT:")))
			narrative.BinaryEventWarning = v == "true" || v == "yes"
		case strings.HasPrefix(line, "NARRATIVE:"):
			v := models.NarrativeType(strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "NARRATIVE:"))))
			if models.ValidNarrative(v) {
				narrative.PrimaryNarrative = v
				foundNarrative = true
			}
		case strings.HasPrefix(line, "SENTIMENT_SCORE:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "SENTIMENT_SCORE:"))
			if score, err := strconv.ParseFloat(v, 64); err == nil {
				narrative.SentimentScore = clampScore(score)
			}
		case strings.HasPrefix(line, "SUMMARY:"):
			narrative.Summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		}
	}

	// Fallback keyword scoring when the strict format was not honored
	if !foundNarrative {
		lower := strings.ToLower(analysis)
		bullScore := strings.Count(lower, "bullish") + strings.Count(lower, "accumulation")*2 + strings.Count(lower, "upgrade")
		bearScore := strings.Count(lower, "bearish") + strings.Count(lower, "distribution")*2 + strings.Count(lower, "downgrade")

		if strings.Contains(lower, "earnings") {
			narrative.PrimaryNarrative = models.NarrativeEarningsPlay
		}
		if narrative.SentimentScore == 0 {
			if bullScore > bearScore && bullScore >= 2 {
				narrative.SentimentScore = 0.5
			} else if bearScore > bullScore && bearScore >= 2 {
				narrative.SentimentScore = -0.5
			}
		}
	}

	if narrative.Summary == "" {
		narrative.Summary = "No structured summary returned."
	}

	return narrative
}

func clampScore(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < -1.0 {
		return -1.0
	}
	return score
}
