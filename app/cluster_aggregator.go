package app

import (
	"sort"
	"strings"

	"whale-radar/logger"
	"whale-radar/marketdata"
	"whale-radar/models"
)

// ClusterAggregator groups raw flow alerts into whale clusters keyed by
// ticker, direction and expiry (when the alerts carry one).
type ClusterAggregator struct{}

// NewClusterAggregator creates a new cluster aggregator
func NewClusterAggregator() *ClusterAggregator {
	return &ClusterAggregator{}
}

type clusterAcc struct {
	cluster    models.WhaleCluster
	strikes    map[float64]bool
	volOISum   float64
	volOICount int
}

// Build aggregates alerts into clusters ordered by total premium descending.
// Without a ticker column nothing can be clustered and the result is empty.
func (a *ClusterAggregator) Build(alerts []marketdata.Record) []models.WhaleCluster {
	log := logger.WithComponent("clusters")

	if len(alerts) == 0 {
		log.Warn("No alerts to cluster")
		return nil
	}

	groups := make(map[string]*clusterAcc)
	var keys []string

	for _, alert := range alerts {
		ticker, ok := alert.Str("ticker")
		if !ok || ticker == "" {
			continue
		}

		direction := deriveDirection(alert)
		// Alerts without an expiry cluster under the empty key; they are
		// kept, not dropped.
		expiry, _ := alert.FirstStr("expiry", "expiration_date", "expiration")

		key := ticker + "|" + string(direction) + "|" + expiry
		acc, exists := groups[key]
		if !exists {
			acc = &clusterAcc{
				cluster: models.WhaleCluster{
					Ticker:    ticker,
					Direction: direction,
					Expiry:    expiry,
				},
				strikes: make(map[float64]bool),
			}
			groups[key] = acc
			keys = append(keys, key)
		}

		if premium, ok := alert.FirstFloat("total_premium", "premium"); ok {
			acc.cluster.TotalPremium += premium
		}
		if count, ok := alert.Float("trade_count"); ok {
			acc.cluster.TradeCount += count
		}
		if ratio, ok := alert.Float("volume_oi_ratio"); ok {
			acc.volOISum += ratio
			acc.volOICount++
		}
		if strike, ok := alert.FirstFloat("strike", "strike_price"); ok {
			acc.strikes[strike] = true
		}
	}

	if len(keys) == 0 {
		log.Error("Ticker column missing, cannot build clusters")
		return nil
	}

	clusters := make([]models.WhaleCluster, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		if acc.volOICount > 0 {
			acc.cluster.VolumeOI = acc.volOISum / float64(acc.volOICount)
		}
		acc.cluster.WhaleStrikes = sortedStrikes(acc.strikes)
		clusters = append(clusters, acc.cluster)
	}

	// Descending by total premium, original group order on ties.
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].TotalPremium > clusters[j].TotalPremium
	})

	log.Infof("Built %d whale clusters from %d alerts", len(clusters), len(alerts))
	return clusters
}

// deriveDirection reads the contract-type code best-effort: any code
// containing 'C' is a call, then 'P' a put. Vendor vocabularies vary too
// much for a strict enum match.
func deriveDirection(alert marketdata.Record) models.Direction {
	code, ok := alert.FirstStr("type", "contract_type")
	if !ok {
		return models.DirectionUnknown
	}
	upper := strings.ToUpper(code)
	switch {
	case strings.Contains(upper, "C"):
		return models.DirectionCall
	case strings.Contains(upper, "P"):
		return models.DirectionPut
	default:
		return models.DirectionUnknown
	}
}

func sortedStrikes(set map[float64]bool) []float64 {
	if len(set) == 0 {
		return nil
	}
	strikes := make([]float64, 0, len(set))
	for s := range set {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)
	return strikes
}
