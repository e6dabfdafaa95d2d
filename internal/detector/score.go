package detector

import (
	"math"

	"github.com/whalewatch/engine/internal/models"
)

// Scoring weights. They sum to 1.0; the score stays a weighted linear blend
// so the policy remains auditable.
const (
	sizeWeight     = 0.45
	newnessWeight  = 0.35
	priceDevWeight = 0.20

	// sizeSaturationMult saturates the size term at this multiple of the
	// notional floor (3x the floor, i.e. $9000 at the default $3000).
	sizeSaturationMult = 3.0

	// establishedWalletTrades is the upper bound of the mid newness tier.
	establishedWalletTrades = 10

	// deviationSaturation is the price deviation at which the deviation
	// term saturates (20%).
	deviationSaturation = 0.20

	// noHistoryDevScore is the neutral-low deviation term used when the
	// market has no median yet.
	noHistoryDevScore = 0.3
)

// Thresholds holds the tunable detection policy values.
type Thresholds struct {
	MinNotionalUSD     float64
	NewWalletMaxTrades int
	MaxWalletTrades    int
	MinPriceDeviation  float64
	MinAlertScore      float64
}

// DefaultThresholds returns the reference policy values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinNotionalUSD:     3000,
		NewWalletMaxTrades: 3,
		MaxWalletTrades:    20,
		MinPriceDeviation:  0.07,
		MinAlertScore:      60,
	}
}

// Engine scores trades and decides whether they become alerts. All methods
// are pure functions of their inputs and the fixed thresholds.
type Engine struct {
	th Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(th Thresholds) *Engine {
	return &Engine{th: th}
}

// InsiderScore computes the 0-100 composite suspicion score for a trade
// given the wallet's post-increment stats and the market median (hasMedian
// reports whether one exists).
func (e *Engine) InsiderScore(trade models.Trade, stats models.WalletStats, median float64, hasMedian bool) float64 {
	notional := trade.Notional()
	sizeScore := math.Min(notional/e.th.MinNotionalUSD, sizeSaturationMult)
	sizeScoreNorm := math.Min(sizeScore/sizeSaturationMult, 1.0)

	var newnessScore float64
	switch {
	case stats.TradeCount <= e.th.NewWalletMaxTrades:
		newnessScore = 1.0
	case stats.TradeCount <= establishedWalletTrades:
		newnessScore = 0.5
	default:
		newnessScore = 0.1
	}

	priceDevScore := noHistoryDevScore
	if hasMedian && median > 0 {
		deviation := math.Abs(trade.Price-median) / median
		priceDevScore = math.Min(deviation/deviationSaturation, 1.0)
	}

	score := sizeWeight*sizeScoreNorm + newnessWeight*newnessScore + priceDevWeight*priceDevScore
	return math.Round(score*100*10) / 10
}
