package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"whale-radar/batch"
	"whale-radar/logger"
	"whale-radar/marketdata"
	"whale-radar/models"
)

// StrikeOptimizer re-targets each candidate at an ATM/JOTM strike with a
// later expiry and names the resulting option structure. The whale's own
// deep strike is only used as the short leg of a spread, never bought
// outright.
type StrikeOptimizer struct {
	market  MarketDataProvider
	workers int
}

// NewStrikeOptimizer creates a new strike optimizer
func NewStrikeOptimizer(market MarketDataProvider, workers int) *StrikeOptimizer {
	return &StrikeOptimizer{market: market, workers: workers}
}

// Optimize fetches original and +14d-shifted chains for every candidate in
// one batch, picks the contract nearest the ideal strike and emits one
// strategy payload per successfully optimized candidate. Candidates without
// any chain pass through labeled, without a payload.
func (o *StrikeOptimizer) Optimize(ctx context.Context, candidates []models.TradeCandidate) ([]models.OptimizedStructure, []models.StrategyPayload, error) {
	log := logger.WithComponent("optimizer")

	if len(candidates) == 0 {
		log.Warn("No candidates to optimize")
		return nil, nil, nil
	}
	if o.market == nil {
		return nil, nil, fmt.Errorf("market data provider is not configured")
	}

	shifted := make(map[string]string, len(candidates))
	tasks := o.chainTasks(candidates, shifted)
	log.Infof("Optimizing %d candidates across %d chain fetches", len(candidates), len(tasks))

	chains, err := batch.Execute(ctx, o.workers, tasks)
	if err != nil {
		log.Errorf("Chain batch failed: %v", err)
		return nil, nil, nil
	}

	var optimized []models.OptimizedStructure
	var payloads []models.StrategyPayload

	for _, cand := range candidates {
		origKey := fmt.Sprintf("chain_%s_%s_orig", cand.Ticker, cand.Expiry)
		shiftKey := fmt.Sprintf("chain_%s_%s_shift", cand.Ticker, cand.Expiry)

		activeChain := chainValue(chains, origKey)
		activeExpiry := cand.Expiry
		expiryNote := "Original (Short Term)"

		if shiftedChain := chainValue(chains, shiftKey); len(shiftedChain) > 0 {
			activeChain = shiftedChain
			activeExpiry = shifted[chainKey(cand.Ticker, cand.Expiry)]
			expiryNote = "Shifted (+14d Breathing Room)"
		}

		if len(activeChain) == 0 {
			log.Warnf("No chain found for %s", cand.Ticker)
			optimized = append(optimized, passThrough(cand, "Standard Long (No Chain)"))
			continue
		}

		structure, payload, outcome := buildStructure(cand, activeChain, activeExpiry, expiryNote)
		switch outcome {
		case outcomeOK:
			optimized = append(optimized, structure)
			payloads = append(payloads, payload)
		case outcomeNoSide:
			log.Warnf("No %ss in chain for %s", cand.OptionType, cand.Ticker)
		case outcomeFallback:
			log.Warnf("Optimization fell back for %s", cand.Ticker)
			optimized = append(optimized, passThrough(cand, "Standard Long (Fallback)"))
		}
	}

	log.Infof("Optimization complete: %d structures, %d strategy payloads", len(optimized), len(payloads))
	return optimized, payloads, nil
}

func (o *StrikeOptimizer) chainTasks(candidates []models.TradeCandidate, shifted map[string]string) []batch.Task[[]marketdata.Record] {
	log := logger.WithComponent("optimizer")
	seen := make(map[string]bool)
	var tasks []batch.Task[[]marketdata.Record]

	add := func(key, ticker, expiry string) {
		if seen[key] {
			return
		}
		seen[key] = true
		tasks = append(tasks, batch.Task[[]marketdata.Record]{
			Key: key,
			Run: func(ctx context.Context) ([]marketdata.Record, error) {
				return o.market.GetOptionChain(ctx, ticker, expiry)
			},
		})
	}

	for _, cand := range candidates {
		pairKey := chainKey(cand.Ticker, cand.Expiry)
		shiftedExp, err := shiftExpiry(cand.Expiry)
		if err != nil {
			log.Warnf("Date parsing error for %s: %v", cand.Ticker, err)
			shifted[pairKey] = cand.Expiry
			add(fmt.Sprintf("chain_%s_%s_orig", cand.Ticker, cand.Expiry), cand.Ticker, cand.Expiry)
			continue
		}
		shifted[pairKey] = shiftedExp
		add(fmt.Sprintf("chain_%s_%s_orig", cand.Ticker, cand.Expiry), cand.Ticker, cand.Expiry)
		add(fmt.Sprintf("chain_%s_%s_shift", cand.Ticker, cand.Expiry), cand.Ticker, shiftedExp)
	}
	return tasks
}

// shiftExpiry adds 14 calendar days and advances to the nearest Friday on or
// after that date.
func shiftExpiry(expiry string) (string, error) {
	t, err := time.Parse("2006-01-02", expiry)
	if err != nil {
		return "", err
	}
	t = t.AddDate(0, 0, 14)
	for t.Weekday() != time.Friday {
		t = t.AddDate(0, 0, 1)
	}
	return t.Format("2006-01-02"), nil
}

func chainValue(chains map[string]batch.Result[[]marketdata.Record], key string) []marketdata.Record {
	res, ok := chains[key]
	if !ok || !res.OK() {
		return nil
	}
	return res.Value
}

func passThrough(cand models.TradeCandidate, label string) models.OptimizedStructure {
	return models.OptimizedStructure{
		TradeCandidate:      cand,
		OptimizedStrike:     cand.SelectedStrike,
		OptimizedExpiry:     cand.Expiry,
		StructureSuggestion: label,
	}
}

type structureOutcome int

const (
	outcomeOK structureOutcome = iota
	outcomeNoSide
	outcomeFallback
)

// buildStructure selects the contract nearest the ideal strike and builds
// either a debit spread toward the whale average or a single long leg.
func buildStructure(cand models.TradeCandidate, chain []marketdata.Record, activeExpiry, expiryNote string) (models.OptimizedStructure, models.StrategyPayload, structureOutcome) {
	var empty models.OptimizedStructure
	var noPayload models.StrategyPayload

	side := filterSide(chain, cand.OptionType)
	if !anyTyped(chain) {
		return empty, noPayload, outcomeFallback
	}
	if len(side) == 0 {
		return empty, noPayload, outcomeNoSide
	}

	spot := cand.Price
	whaleAvg := cand.WhaleAvgStrike

	// ATM/JOTM focus: aim 2% out of the money, but never past the whale
	// average when it sits between spot and the ideal.
	var ideal float64
	if cand.OptionType == "call" {
		ideal = spot * 1.02
		if whaleAvg > spot && ideal > whaleAvg {
			ideal = (spot + whaleAvg) / 2.0
		}
	} else {
		ideal = spot * 0.98
		if whaleAvg < spot && ideal < whaleAvg {
			ideal = (spot + whaleAvg) / 2.0
		}
	}

	best, ok := nearestByStrike(side, ideal)
	if !ok {
		return empty, noPayload, outcomeFallback
	}
	newStrike, _ := contractStrike(best)

	structure := models.OptimizedStructure{
		TradeCandidate:  cand,
		OptimizedStrike: newStrike,
		OptimizedExpiry: activeExpiry,
	}

	legs := []models.StrategyLeg{buildLeg(best, cand.OptionType, activeExpiry, "buy")}
	spreadThreshold := spot * 0.05

	var structureName string
	switch {
	case cand.OptionType == "call" && whaleAvg-newStrike > spreadThreshold:
		structureName = fmt.Sprintf("Call Spread %s/%s", fmtStrike(newStrike), fmtStrike(whaleAvg))
		if sell, ok := nearestByStrike(side, whaleAvg); ok {
			legs = append(legs, buildLeg(sell, cand.OptionType, activeExpiry, "sell"))
		}
	case cand.OptionType == "put" && newStrike-whaleAvg > spreadThreshold:
		structureName = fmt.Sprintf("Put Spread %s/%s", fmtStrike(newStrike), fmtStrike(whaleAvg))
		if sell, ok := nearestByStrike(side, whaleAvg); ok {
			legs = append(legs, buildLeg(sell, cand.OptionType, activeExpiry, "sell"))
		}
	default:
		structureName = fmt.Sprintf("Long %s @ %s", upperSide(cand.OptionType), fmtStrike(newStrike))
	}

	structure.StructureSuggestion = structureName
	payload := models.StrategyPayload{
		Title:  fmt.Sprintf("%s %s (%s)", cand.Ticker, structureName, expiryNote),
		Ticker: cand.Ticker,
		Legs:   legs,
	}
	return structure, payload, outcomeOK
}

func anyTyped(chain []marketdata.Record) bool {
	for _, rec := range chain {
		if _, ok := contractType(rec); ok {
			return true
		}
	}
	return false
}

func nearestByStrike(contracts []marketdata.Record, target float64) (marketdata.Record, bool) {
	type priced struct {
		rec    marketdata.Record
		strike float64
	}
	var withStrike []priced
	for _, rec := range contracts {
		if strike, ok := contractStrike(rec); ok {
			withStrike = append(withStrike, priced{rec: rec, strike: strike})
		}
	}
	if len(withStrike) == 0 {
		return nil, false
	}
	sort.SliceStable(withStrike, func(i, j int) bool {
		di := withStrike[i].strike - target
		if di < 0 {
			di = -di
		}
		dj := withStrike[j].strike - target
		if dj < 0 {
			dj = -dj
		}
		return di < dj
	})
	return withStrike[0].rec, true
}

func buildLeg(rec marketdata.Record, optionType, expiry, action string) models.StrategyLeg {
	strike, _ := contractStrike(rec)
	iv, _ := contractIV(rec)
	return models.StrategyLeg{
		Strike:            strike,
		Expiration:        expiry,
		Type:              optionType,
		Action:            action,
		Premium:           legPremium(rec),
		Delta:             contractDelta(rec),
		ImpliedVolatility: iv,
	}
}

func upperSide(optionType string) string {
	if optionType == "call" {
		return "CALL"
	}
	return "PUT"
}
