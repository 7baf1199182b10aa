package models

// Direction is the option side a whale cluster leans on.
type Direction string

const (
	DirectionCall    Direction = "CALL"
	DirectionPut     Direction = "PUT"
	DirectionUnknown Direction = "UNKNOWN"
)

// Sentiment is the aggregated flow verdict for a ticker.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

// Trend is the price position relative to the 20-period moving average.
type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
	TrendFlat Trend = "FLAT"
)

// Confidence grades a signal. Rank() gives the total ordering used by
// every downstream sort.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Rank maps confidence to a sortable weight (HIGH > MEDIUM > LOW).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Signal types produced by the hedge filter.
const (
	SignalTrendFollowingLong  = "TREND_FOLLOWING_LONG"
	SignalBreakoutLong        = "BREAKOUT_LONG"
	SignalTrendFollowingShort = "TREND_FOLLOWING_SHORT"
	SignalBreakdownShort      = "BREAKDOWN_SHORT"
)

// NarrativeType classifies the dominant news narrative for a ticker.
type NarrativeType string

const (
	NarrativeEarningsPlay       NarrativeType = "EARNINGS_PLAY"
	NarrativeCatalystDriven     NarrativeType = "CATALYST_DRIVEN"
	NarrativeMacroSector        NarrativeType = "MACRO_SECTOR"
	NarrativeSilentAccumulation NarrativeType = "SILENT_ACCUMULATION"
	NarrativeBadNewsDump        NarrativeType = "BAD_NEWS_DUMP"
	NarrativeUnknown            NarrativeType = "UNKNOWN"
	// NarrativeUnknownError marks rows whose classification request failed.
	NarrativeUnknownError NarrativeType = "UNKNOWN_ERROR"
)

// ValidNarrative reports whether t is one of the classifier's six values.
func ValidNarrative(t NarrativeType) bool {
	switch t {
	case NarrativeEarningsPlay, NarrativeCatalystDriven, NarrativeMacroSector,
		NarrativeSilentAccumulation, NarrativeBadNewsDump, NarrativeUnknown:
		return true
	}
	return false
}

// WhaleCluster aggregates flow alerts sharing ticker, direction and expiry.
type WhaleCluster struct {
	Ticker       string
	Direction    Direction
	Expiry       string // "" when the alerts carried no expiry column
	TotalPremium float64
	TradeCount   float64
	VolumeOI     float64   // mean volume / open-interest ratio
	WhaleStrikes []float64 // sorted, unique
}

// Signal is a cluster annotated with the hedge filter's verdict.
type Signal struct {
	Ticker        string
	Direction     Direction
	Expiry        string
	TotalPremium  float64
	TradeCount    float64
	VolumeOI      float64
	WhaleStrikes  []float64
	SignalType    string
	Confidence    Confidence
	Price         float64 // latest close
	SMA20         float64
	PriceTrend    Trend
	FlowSentiment Sentiment
	CallPremium   float64
	PutPremium    float64
}

// TradeCandidate is a signal with a selected option contract. The narrative
// fields are appended by the enrichment stage and are zero until then.
type TradeCandidate struct {
	Ticker            string
	SignalType        string
	Confidence        Confidence
	Price             float64
	Expiry            string
	OptionType        string // "call" or "put"
	SelectedStrike    float64
	Delta             float64
	Premium           float64
	IVPercentile      float64
	CurrentIV         float64 // percent, one decimal
	WhaleStrikes      []float64
	WhaleAvgStrike    float64
	TotalWhalePremium float64
	FlowSentiment     Sentiment

	// Narrative enrichment (append-only, never filters).
	BinaryRisk    bool
	NarrativeType NarrativeType
	NewsSentiment float64
	NewsSummary   string
}

// OptimizedStructure is a candidate with its re-optimized strike/expiry and
// a named structure.
type OptimizedStructure struct {
	TradeCandidate
	OptimizedStrike     float64
	OptimizedExpiry     string
	StructureSuggestion string
}

// StrategyLeg is one priced option leg sent to the payoff calculator.
type StrategyLeg struct {
	Strike            float64 `json:"strike"`
	Expiration        string  `json:"expiration"`
	Type              string  `json:"type"`
	Action            string  `json:"action"` // "buy" or "sell"
	Premium           float64 `json:"premium"`
	Delta             float64 `json:"delta"`
	ImpliedVolatility float64 `json:"implied_volatility"`
}

// StrategyPayload is the ordered leg list for one candidate.
type StrategyPayload struct {
	Title  string        `json:"title"`
	Ticker string        `json:"ticker"`
	Legs   []StrategyLeg `json:"legs"`
}

// StrategyResult carries the payoff metrics returned for one payload.
type StrategyResult struct {
	Ticker     string  `json:"ticker"`
	Title      string  `json:"title"`
	StockPrice float64 `json:"stock_price"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	MaxProfit  float64 `json:"max_profit"`
	MaxLoss    float64 `json:"max_loss"`
	Breakeven  float64 `json:"breakeven"`
	RRRatio    float64 `json:"risk_reward_ratio"`
}
