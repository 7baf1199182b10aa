package app

import (
	"math"
	"strconv"

	"whale-radar/marketdata"
)

// Chain records arrive with vendor-dependent column names, sometimes nested
// under "details"/"greeks"/"last_quote" prefixes. These probes centralize the
// fallback order so every stage reads contracts the same way.

func contractStrike(rec marketdata.Record) (float64, bool) {
	return rec.FirstFloat("details.strike_price", "strike_price", "strike")
}

func contractType(rec marketdata.Record) (string, bool) {
	return rec.FirstStr("details.contract_type", "contract_type", "type")
}

func contractDelta(rec marketdata.Record) float64 {
	delta, _ := rec.FirstFloat("greeks.delta", "delta")
	return delta
}

func contractIV(rec marketdata.Record) (float64, bool) {
	return rec.Float("implied_volatility")
}

// legPremium picks the best available price for a leg: ask, then last trade,
// then average, else 0.
func legPremium(rec marketdata.Record) float64 {
	premium, _ := rec.FirstFloat("last_quote.ask", "ask", "last_price", "avg_price")
	return premium
}

// quotePremium is the candidate-selection price: ask, falling back to bid.
func quotePremium(rec marketdata.Record) float64 {
	premium, _ := rec.FirstFloat("last_quote.ask", "ask", "last_quote.bid", "bid")
	return premium
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fmtStrike renders a strike without trailing zeros for structure labels.
func fmtStrike(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
