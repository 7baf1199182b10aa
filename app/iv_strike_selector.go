package app

import (
	"context"
	"fmt"
	"math"
	"sort"

	"whale-radar/batch"
	"whale-radar/logger"
	"whale-radar/marketdata"
	"whale-radar/models"
)

// IVStrikeSelector turns signals into trade candidates. It fetches the
// relevant option chains in one batch, rejects signals whose chain-relative
// IV percentile is too rich and picks a strike with breathing room on the
// correct side of the whale footprint.
type IVStrikeSelector struct {
	market    MarketDataProvider
	threshold float64
	workers   int
}

// NewIVStrikeSelector creates a selector. threshold is the IV-percentile
// rejection bound (0 falls back to 70), workers bounds the chain fan-out.
func NewIVStrikeSelector(market MarketDataProvider, threshold float64, workers int) *IVStrikeSelector {
	if threshold <= 0 {
		threshold = 70
	}
	return &IVStrikeSelector{market: market, threshold: threshold, workers: workers}
}

// Select fetches all chains keyed by ticker_expiry and evaluates every
// signal against its chain. A failed batch empties the stage.
func (s *IVStrikeSelector) Select(ctx context.Context, signals []models.Signal) ([]models.TradeCandidate, error) {
	log := logger.WithComponent("iv_selector")

	if len(signals) == 0 {
		log.Warn("No signals to evaluate")
		return nil, nil
	}
	if s.market == nil {
		return nil, fmt.Errorf("market data provider is not configured")
	}

	tasks := s.chainTasks(signals)
	log.Infof("Fetching %d option chains for %d signals", len(tasks), len(signals))

	chains, err := batch.Execute(ctx, s.workers, tasks)
	if err != nil {
		log.Errorf("Chain batch failed: %v", err)
		return nil, nil
	}

	var candidates []models.TradeCandidate
	rejected := 0
	skipped := 0

	for _, sig := range signals {
		key := chainKey(sig.Ticker, sig.Expiry)
		res, ok := chains[key]
		if !ok {
			skipped++
			continue
		}
		if !res.OK() {
			log.Warnf("Chain fetch failed for %s: %v", key, res.Err)
			skipped++
			continue
		}

		side := "put"
		if sig.Direction == models.DirectionCall {
			side = "call"
		}
		contracts := filterSide(res.Value, side)
		if len(contracts) == 0 {
			skipped++
			continue
		}

		currentIV, percentile, ok := ivPercentile(contracts)
		if !ok {
			log.Warnf("No IV data for %s", sig.Ticker)
			skipped++
			continue
		}
		if percentile > s.threshold {
			log.Infof("Rejected %s: IV percentile %.1f above %.1f", sig.Ticker, percentile, s.threshold)
			rejected++
			continue
		}

		whaleMin, whaleMax, whaleAvg := whaleStrikeRange(sig.WhaleStrikes, sig.Price)
		selected, ok := pickBreathingRoomStrike(contracts, sig.Price, sig.Direction, whaleMin, whaleMax)
		if !ok {
			skipped++
			continue
		}

		strike, _ := contractStrike(selected)
		candidates = append(candidates, models.TradeCandidate{
			Ticker:            sig.Ticker,
			SignalType:        sig.SignalType,
			Confidence:        sig.Confidence,
			Price:             sig.Price,
			Expiry:            sig.Expiry,
			OptionType:        side,
			SelectedStrike:    strike,
			Delta:             contractDelta(selected),
			Premium:           quotePremium(selected),
			IVPercentile:      round1(percentile),
			CurrentIV:         round1(currentIV * 100),
			WhaleStrikes:      sig.WhaleStrikes,
			WhaleAvgStrike:    round2(whaleAvg),
			TotalWhalePremium: sig.TotalPremium,
			FlowSentiment:     sig.FlowSentiment,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Confidence.Rank(), candidates[j].Confidence.Rank()
		if ri != rj {
			return ri > rj
		}
		return candidates[i].IVPercentile < candidates[j].IVPercentile
	})

	log.Infof("Strike selection complete: %d candidates, %d rejected on IV, %d skipped", len(candidates), rejected, skipped)
	return candidates, nil
}

func (s *IVStrikeSelector) chainTasks(signals []models.Signal) []batch.Task[[]marketdata.Record] {
	seen := make(map[string]bool, len(signals))
	var tasks []batch.Task[[]marketdata.Record]
	for _, sig := range signals {
		key := chainKey(sig.Ticker, sig.Expiry)
		if seen[key] {
			continue
		}
		seen[key] = true
		ticker, expiry := sig.Ticker, sig.Expiry
		tasks = append(tasks, batch.Task[[]marketdata.Record]{
			Key: key,
			Run: func(ctx context.Context) ([]marketdata.Record, error) {
				return s.market.GetOptionChain(ctx, ticker, expiry)
			},
		})
	}
	return tasks
}

func chainKey(ticker, expiry string) string {
	return fmt.Sprintf("%s_%s", ticker, expiry)
}

// filterSide keeps only the contracts of the requested side ("call"/"put").
func filterSide(chain []marketdata.Record, side string) []marketdata.Record {
	var out []marketdata.Record
	for _, rec := range chain {
		ct, ok := contractType(rec)
		if !ok {
			continue
		}
		if normalizeSide(ct) == side {
			out = append(out, rec)
		}
	}
	return out
}

func normalizeSide(contractType string) string {
	for _, r := range contractType {
		switch r {
		case 'c', 'C':
			return "call"
		case 'p', 'P':
			return "put"
		}
		break
	}
	return ""
}

// ivPercentile scores the side's mean IV inside a ±20% padded band around
// the observed IV range. A collapsed range scores exactly 50; a side with
// no IV observations at all reports ok=false and is not scored. This is a
// snapshot-relative proxy, not a 52-week percentile.
func ivPercentile(contracts []marketdata.Record) (currentIV, percentile float64, ok bool) {
	var ivs []float64
	for _, rec := range contracts {
		if iv, ok := contractIV(rec); ok {
			ivs = append(ivs, iv)
		}
	}
	if len(ivs) == 0 {
		return 0, 0, false
	}

	min, max := ivs[0], ivs[0]
	var sum float64
	for _, iv := range ivs {
		sum += iv
		if iv < min {
			min = iv
		}
		if iv > max {
			max = iv
		}
	}
	currentIV = sum / float64(len(ivs))

	ivLow := min * 0.8
	ivHigh := max * 1.2
	if ivHigh == ivLow {
		return currentIV, 50, true
	}
	return currentIV, (currentIV - ivLow) / (ivHigh - ivLow) * 100, true
}

// whaleStrikeRange derives the min/max/average of the cluster's strikes.
// Without any observed whale strike the footprint degrades to the spot
// price itself.
func whaleStrikeRange(strikes []float64, spot float64) (min, max, avg float64) {
	if len(strikes) == 0 {
		return spot, spot, spot
	}
	min, max = strikes[0], strikes[0]
	var sum float64
	for _, s := range strikes {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max, sum / float64(len(strikes))
}

// pickBreathingRoomStrike scans the 5 contracts nearest to spot and picks
// the first on the cheap side of the whale footprint: at or below the lowest
// whale strike for calls, at or above the highest for puts. When none
// qualifies it falls back to the single nearest-to-spot contract.
func pickBreathingRoomStrike(contracts []marketdata.Record, spot float64, direction models.Direction, whaleMin, whaleMax float64) (marketdata.Record, bool) {
	type priced struct {
		rec    marketdata.Record
		strike float64
	}
	var byDistance []priced
	for _, rec := range contracts {
		strike, ok := contractStrike(rec)
		if !ok {
			continue
		}
		byDistance = append(byDistance, priced{rec: rec, strike: strike})
	}
	if len(byDistance) == 0 {
		return nil, false
	}
	sort.SliceStable(byDistance, func(i, j int) bool {
		return math.Abs(byDistance[i].strike-spot) < math.Abs(byDistance[j].strike-spot)
	})

	nearest := byDistance
	if len(nearest) > 5 {
		nearest = nearest[:5]
	}
	for _, p := range nearest {
		if direction == models.DirectionCall && p.strike <= whaleMin {
			return p.rec, true
		}
		if direction != models.DirectionCall && p.strike >= whaleMax {
			return p.rec, true
		}
	}
	return byDistance[0].rec, true
}
