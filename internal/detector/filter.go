package detector

import (
	"math"

	"github.com/whalewatch/engine/internal/models"
)

// Suppression reasons, in rule order.
const (
	ReasonLowNotional       = "low_notional"
	ReasonTooManyTrades     = "too_many_trades"
	ReasonLowPriceDeviation = "low_price_deviation"
	ReasonLowScore          = "low_score"
)

// Reasons lists every suppression reason, for counter initialization.
var Reasons = []string{
	ReasonLowNotional,
	ReasonTooManyTrades,
	ReasonLowPriceDeviation,
	ReasonLowScore,
}

// Evaluate runs the ordered suppression rules against one trade and returns
// whether it should become an alert, the insider score, and the suppression
// reason (empty on alert). Rules short-circuit: the score is only computed
// once the score-independent rules have passed.
func (e *Engine) Evaluate(trade models.Trade, stats models.WalletStats, median float64, hasMedian bool) (bool, float64, string) {
	if trade.Notional() < e.th.MinNotionalUSD {
		return false, 0, ReasonLowNotional
	}

	if stats.TradeCount > e.th.MaxWalletTrades {
		return false, 0, ReasonTooManyTrades
	}

	if hasMedian && median > 0 {
		deviation := math.Abs(trade.Price-median) / median
		if deviation < e.th.MinPriceDeviation {
			return false, 0, ReasonLowPriceDeviation
		}
	}

	score := e.InsiderScore(trade, stats, median, hasMedian)
	if score < e.th.MinAlertScore {
		return false, score, ReasonLowScore
	}

	return true, score, ""
}
