// Package models defines the core domain entities: trades, wallet stats, and alerts.
package models

import (
	"errors"
	"time"
)

// Trade is a single taker-side fill ingested from the data-api feed.
// It is a plain value; nothing mutates a trade after parsing.
type Trade struct {
	Wallet      string  `json:"wallet"`
	Side        string  `json:"side"`
	ConditionID string  `json:"condition_id"`
	Outcome     string  `json:"outcome"`
	Size        float64 `json:"size"`
	Price       float64 `json:"price"`
	Timestamp   int64   `json:"timestamp"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	EventSlug   string  `json:"event_slug"`
}

// Notional returns the USD-equivalent magnitude of the trade.
func (t Trade) Notional() float64 {
	return t.Size * t.Price
}

// WalletStats tracks cumulative activity for one wallet.
// FirstSeenTS is set once at creation; TradeCount only ever grows.
type WalletStats struct {
	FirstSeenTS int64
	TradeCount  int
}

// Alert is an emitted insider-trade alert, persisted by the sink.
// PriceImpact is nil when the market had no median at detection time.
type Alert struct {
	ID             string    `json:"id"`
	Wallet         string    `json:"wallet"`
	MarketID       string    `json:"market_id"`
	MarketTitle    string    `json:"market_title"`
	MarketSlug     string    `json:"market_slug"`
	EventSlug      string    `json:"event_slug"`
	Outcome        string    `json:"outcome"`
	Side           string    `json:"side"`
	Size           float64   `json:"size"`
	Price          float64   `json:"price"`
	NotionalUSD    float64   `json:"notional_usd"`
	PriceImpact    *float64  `json:"price_impact"`
	InsiderScore   float64   `json:"insider_score"`
	TradeTimestamp time.Time `json:"trade_timestamp"`
	DetectedAt     time.Time `json:"detected_at"`
}

// Validate checks alert field constraints before persistence.
func (a *Alert) Validate() error {
	if a.ID == "" {
		return errors.New("alert ID must not be empty")
	}
	if a.Wallet == "" {
		return errors.New("alert wallet must not be empty")
	}
	if a.MarketID == "" {
		return errors.New("alert market ID must not be empty")
	}
	if a.InsiderScore < 0 || a.InsiderScore > 100 {
		return errors.New("insider score must be between 0 and 100")
	}
	if a.NotionalUSD < 0 {
		return errors.New("notional must not be negative")
	}
	if a.TradeTimestamp.IsZero() {
		return errors.New("trade timestamp must be set")
	}
	return nil
}
