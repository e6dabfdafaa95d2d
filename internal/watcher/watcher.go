// Package watcher drives the polling loop: fetch, chronological replay,
// detection, and alert emission.
package watcher

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/whalewatch/engine/internal/detector"
	"github.com/whalewatch/engine/internal/logger"
	"github.com/whalewatch/engine/internal/metrics"
	"github.com/whalewatch/engine/internal/models"
	"github.com/whalewatch/engine/internal/ringbuf"
)

// sinkTimeout bounds a single alert write so a hung sink cannot stall the
// polling loop indefinitely.
const sinkTimeout = 10 * time.Second

// TradeSource fetches one batch of recent trades, newest-first.
type TradeSource interface {
	FetchTrades(ctx context.Context) ([]models.Trade, error)
}

// AlertSink durably stores emitted alerts.
type AlertSink interface {
	InsertAlert(ctx context.Context, alert *models.Alert) error
}

// Notifier pushes an emitted alert to an outbound channel.
type Notifier interface {
	SendAlert(alert *models.Alert) error
}

// Config holds the watcher's cadence and state capacities.
type Config struct {
	PollInterval     time.Duration
	PriceWindowSize  int
	RecentTradesSize int
	SummaryInterval  int
	Thresholds       detector.Thresholds
}

// DefaultConfig returns the reference watcher settings.
func DefaultConfig() Config {
	return Config{
		PollInterval:     5 * time.Second,
		PriceWindowSize:  200,
		RecentTradesSize: 1000,
		SummaryInterval:  12,
		Thresholds:       detector.DefaultThresholds(),
	}
}

// Watcher owns all mutable detection state and runs the polling cycles.
// All state is touched by a single goroutine; no locking.
type Watcher struct {
	config   Config
	source   TradeSource
	sink     AlertSink
	notifier Notifier

	engine  *detector.Engine
	ledger  *detector.WalletLedger
	windows *detector.PriceWindows
	recent  *ringbuf.Ring[models.Trade]

	cycleCount int
}

// New creates a watcher. The notifier may be nil.
func New(source TradeSource, sink AlertSink, notifier Notifier, config Config) *Watcher {
	return &Watcher{
		config:   config,
		source:   source,
		sink:     sink,
		notifier: notifier,
		engine:   detector.NewEngine(config.Thresholds),
		ledger:   detector.NewWalletLedger(),
		windows:  detector.NewPriceWindows(config.PriceWindowSize),
		recent:   ringbuf.New[models.Trade](config.RecentTradesSize),
	}
}

// RecentTrades returns a snapshot of the diagnostics buffer, oldest-first.
// Nothing in the detection path reads it; it exists for introspection.
func (w *Watcher) RecentTrades() []models.Trade {
	return w.recent.Values()
}

// CycleStats aggregates the diagnostics of one polling cycle.
type CycleStats struct {
	Processed  int
	Alerted    int
	Suppressed map[string]int
}

// RunOnce executes one polling cycle and returns its aggregate diagnostics.
// A transport failure aborts the cycle before any state was touched; the
// caller logs and moves on.
func (w *Watcher) RunOnce(ctx context.Context) (CycleStats, error) {
	w.cycleCount++

	fetched, err := w.source.FetchTrades(ctx)
	if err != nil {
		return CycleStats{}, fmt.Errorf("failed to fetch trades: %w", err)
	}

	// The feed serves newest-first; state must evolve in true temporal
	// order, so replay oldest-first.
	trades := make([]models.Trade, len(fetched))
	for i, t := range fetched {
		trades[len(fetched)-1-i] = t
	}
	logger.Info("Fetched %d trades from data-api", len(trades))

	stats := CycleStats{Suppressed: make(map[string]int, len(detector.Reasons))}
	var notionals []float64

	for _, trade := range trades {
		stats.Processed++
		w.recent.Append(trade)
		notionals = append(notionals, trade.Notional())

		walletStats := w.ledger.Observe(trade.Wallet, trade.Timestamp)
		w.windows.Observe(trade.ConditionID, trade.Price)
		median, hasMedian := w.windows.Median(trade.ConditionID)

		alert, score, reason := w.engine.Evaluate(trade, walletStats, median, hasMedian)
		metrics.TradesProcessedTotal.Inc()
		if !alert {
			stats.Suppressed[reason]++
			metrics.SuppressedTotal.WithLabelValues(reason).Inc()
			continue
		}

		w.emit(trade, score, median, hasMedian)
		stats.Alerted++
		metrics.AlertsTotal.Inc()
	}

	w.logCycle(stats, notionals)

	if w.config.SummaryInterval > 0 && w.cycleCount%w.config.SummaryInterval == 0 && len(trades) > 0 {
		logger.Info("Summary: %d unique wallets tracked, sample trade notional: $%.2f",
			w.ledger.Size(), trades[0].Notional())
	}

	return stats, nil
}

// emit builds the alert record and hands it to the sink and notifier.
// Failures are logged and the cycle proceeds; the alert is simply lost.
func (w *Watcher) emit(trade models.Trade, score float64, median float64, hasMedian bool) {
	alert := &models.Alert{
		ID:             uuid.New().String(),
		Wallet:         trade.Wallet,
		MarketID:       trade.ConditionID,
		MarketTitle:    trade.Title,
		MarketSlug:     trade.Slug,
		EventSlug:      trade.EventSlug,
		Outcome:        trade.Outcome,
		Side:           trade.Side,
		Size:           trade.Size,
		Price:          trade.Price,
		NotionalUSD:    trade.Notional(),
		InsiderScore:   score,
		TradeTimestamp: time.Unix(trade.Timestamp, 0).UTC(),
		DetectedAt:     time.Now().UTC(),
	}
	if hasMedian && median > 0 {
		impact := (trade.Price - median) / median * 100
		alert.PriceImpact = &impact
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := w.sink.InsertAlert(ctx, alert); err != nil {
		logger.Error("Failed to persist alert for wallet %s: %v", alert.Wallet, err)
		metrics.PersistErrorsTotal.Inc()
	}

	logger.Info("Insider trade detected | score %.1f | %s", score, trade.Title)

	if w.notifier != nil {
		if err := w.notifier.SendAlert(alert); err != nil {
			logger.Warn("Failed to send alert notification: %v", err)
		}
	}
}

func (w *Watcher) logCycle(stats CycleStats, notionals []float64) {
	filtered := 0
	var reasonParts []string
	for _, reason := range detector.Reasons {
		if n := stats.Suppressed[reason]; n > 0 {
			filtered += n
			reasonParts = append(reasonParts, fmt.Sprintf("%s: %d", reason, n))
		}
	}

	if len(reasonParts) > 0 {
		logger.Info("Poll cycle complete: %d processed, %d filtered (%s), %d alerts",
			stats.Processed, filtered, strings.Join(reasonParts, ", "), stats.Alerted)
	} else {
		logger.Info("Poll cycle complete: %d processed, %d filtered, %d alerts",
			stats.Processed, filtered, stats.Alerted)
	}

	if len(notionals) == 0 {
		return
	}
	minN, maxN, sum := math.Inf(1), math.Inf(-1), 0.0
	aboveFloor := 0
	for _, n := range notionals {
		minN = math.Min(minN, n)
		maxN = math.Max(maxN, n)
		sum += n
		if n >= w.config.Thresholds.MinNotionalUSD {
			aboveFloor++
		}
	}
	logger.Info("Trade values: min=$%.2f, max=$%.2f, avg=$%.2f, %d/%d above $%.2f threshold",
		minN, maxN, sum/float64(len(notionals)), aboveFloor, len(notionals),
		w.config.Thresholds.MinNotionalUSD)
}

// Run executes polling cycles until ctx is cancelled. Every cycle error is
// logged and swallowed; the fixed inter-cycle delay always applies, and is
// never adjusted for elapsed cycle time.
func (w *Watcher) Run(ctx context.Context) {
	logger.Info("Watcher started in blocking mode (interval: %v)", w.config.PollInterval)
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			logger.Error("Cycle failed: %v", err)
			metrics.CycleErrorsTotal.Inc()
		}
		metrics.CyclesTotal.Inc()

		select {
		case <-ctx.Done():
			logger.Info("Watcher stopped")
			return
		case <-time.After(w.config.PollInterval):
		}
	}
}
