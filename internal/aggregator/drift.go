package aggregator

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

const (
	driftNPSThreshold              = 1.5
	driftWouldRecommendThreshold   = 0.15
	driftImplicitFallbackThreshold = 0.15
	driftMaxWindow                 = 10
)

// DriftSignal names one metric whose most recent ledger entry diverges
// from the trailing window's mean beyond its threshold.
type DriftSignal struct {
	Metric     string  `json:"metric"`
	Latest     float64 `json:"latest"`
	WindowMean float64 `json:"window_mean"`
}

// detectDrift compares the most recent ledger entry against the mean of
// a trailing window of min(10, len(entries)) entries, on NPS (signal if
// below mean-1.5), would-recommend rate (signal if below mean-0.15), and
// implicit fallback rate (signal if above mean+0.15).
func detectDrift(entries []types.LedgerEntry) []DriftSignal {
	if len(entries) == 0 {
		return nil
	}

	windowSize := len(entries)
	if windowSize > driftMaxWindow {
		windowSize = driftMaxWindow
	}
	window := entries[len(entries)-windowSize:]
	latest := window[len(window)-1]

	var sumNPS, sumRecommend, sumFallback float64
	for _, e := range window {
		sumNPS += e.MeanNPS
		sumRecommend += e.WouldRecommendRate
		sumFallback += e.ImplicitFallbackRate
	}
	n := float64(len(window))
	meanNPS := sumNPS / n
	meanRecommend := sumRecommend / n
	meanFallback := sumFallback / n

	var signals []DriftSignal
	if latest.MeanNPS < meanNPS-driftNPSThreshold {
		signals = append(signals, DriftSignal{Metric: "mean_nps", Latest: latest.MeanNPS, WindowMean: meanNPS})
	}
	if latest.WouldRecommendRate < meanRecommend-driftWouldRecommendThreshold {
		signals = append(signals, DriftSignal{Metric: "would_recommend_rate", Latest: latest.WouldRecommendRate, WindowMean: meanRecommend})
	}
	if latest.ImplicitFallbackRate > meanFallback+driftImplicitFallbackThreshold {
		signals = append(signals, DriftSignal{Metric: "implicit_fallback_rate", Latest: latest.ImplicitFallbackRate, WindowMean: meanFallback})
	}
	return signals
}
