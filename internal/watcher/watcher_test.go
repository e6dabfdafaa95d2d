package watcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whalewatch/engine/internal/detector"
	"github.com/whalewatch/engine/internal/models"
)

type fakeSource struct {
	trades []models.Trade
	err    error
}

func (f *fakeSource) FetchTrades(_ context.Context) ([]models.Trade, error) {
	return f.trades, f.err
}

type fakeSink struct {
	alerts []*models.Alert
	err    error
}

func (f *fakeSink) InsertAlert(_ context.Context, alert *models.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

// feed lists trades newest-first, as the data-api serves them.
func newTestWatcher(feed []models.Trade, sink AlertSink) *Watcher {
	return New(&fakeSource{trades: feed}, sink, nil, DefaultConfig())
}

func TestRunOnceEmitsWorkedExampleAlert(t *testing.T) {
	// Five seed trades at 0.30 establish the market median; the newest trade
	// is a fresh wallet buying $5000 at 0.50 against it.
	feed := []models.Trade{
		{
			Wallet: "0xfresh", Side: "BUY", ConditionID: "c1", Outcome: "Yes",
			Size: 10000, Price: 0.5, Timestamp: 1700000010,
			Title: "Will X happen?", Slug: "will-x", EventSlug: "x",
		},
	}
	for i := 0; i < 5; i++ {
		feed = append(feed, models.Trade{
			Wallet: fmt.Sprintf("0xseed%d", i), Side: "SELL", ConditionID: "c1",
			Size: 1, Price: 0.3, Timestamp: int64(1700000001 + i),
		})
	}

	sink := &fakeSink{}
	w := newTestWatcher(feed, sink)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Processed)
	assert.Equal(t, 1, stats.Alerted)
	assert.Equal(t, 5, stats.Suppressed[detector.ReasonLowNotional])

	require.Len(t, sink.alerts, 1)
	alert := sink.alerts[0]
	assert.Equal(t, "0xfresh", alert.Wallet)
	assert.Equal(t, "c1", alert.MarketID)
	assert.Equal(t, "Will X happen?", alert.MarketTitle)
	assert.Equal(t, 80.0, alert.InsiderScore)
	assert.Equal(t, 5000.0, alert.NotionalUSD)
	assert.Equal(t, int64(1700000010), alert.TradeTimestamp.Unix())
	assert.NotEmpty(t, alert.ID)

	// (0.50 - 0.30) / 0.30 * 100
	require.NotNil(t, alert.PriceImpact)
	assert.InDelta(t, 66.6667, *alert.PriceImpact, 0.001)
}

func TestRunOnceTransportFailureIsCycleFatal(t *testing.T) {
	sink := &fakeSink{}
	w := New(&fakeSource{err: errors.New("connection refused")}, sink, nil, DefaultConfig())

	_, err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, sink.alerts)
	assert.Empty(t, w.RecentTrades())
}

func TestRunOnceSinkFailureDoesNotFailCycle(t *testing.T) {
	feed := []models.Trade{{
		Wallet: "0xfresh", ConditionID: "c1", Size: 18000, Price: 0.5, Timestamp: 1,
	}}
	sink := &fakeSink{err: errors.New("disk full")}
	w := newTestWatcher(feed, sink)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Alerted)
}

func TestRunOnceReplaysChronologically(t *testing.T) {
	// One wallet, 21 trades across distinct no-history markets, newest-first.
	// Replayed oldest-first the first 20 fall below the score bar and the
	// 21st trips the hard wallet cutoff.
	var feed []models.Trade
	for i := 21; i >= 1; i-- {
		feed = append(feed, models.Trade{
			Wallet:      "0xbusy",
			ConditionID: fmt.Sprintf("c%d", i),
			Size:        6000,
			Price:       0.5,
			Timestamp:   int64(1700000000 + i),
		})
	}

	sink := &fakeSink{}
	w := newTestWatcher(feed, sink)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 21, stats.Processed)
	assert.Equal(t, 0, stats.Alerted)
	assert.Equal(t, 20, stats.Suppressed[detector.ReasonLowScore])
	assert.Equal(t, 1, stats.Suppressed[detector.ReasonTooManyTrades])
}

func TestRunOnceOwnPriceJoinsMedian(t *testing.T) {
	// Four prior prices at 0.50 plus the evaluated trade's own 0.50 make the
	// fifth sample, so the median exists and the deviation is zero.
	feed := []models.Trade{{
		Wallet: "0xfresh", ConditionID: "c1", Size: 10000, Price: 0.5, Timestamp: 1700000005,
	}}
	for i := 0; i < 4; i++ {
		feed = append(feed, models.Trade{
			Wallet: fmt.Sprintf("0xseed%d", i), ConditionID: "c1",
			Size: 1, Price: 0.5, Timestamp: int64(1700000001 + i),
		})
	}

	sink := &fakeSink{}
	w := newTestWatcher(feed, sink)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Alerted)
	assert.Equal(t, 1, stats.Suppressed[detector.ReasonLowPriceDeviation])
}

func TestRecentTradesBufferIsBounded(t *testing.T) {
	var feed []models.Trade
	for i := 5; i >= 1; i-- {
		feed = append(feed, models.Trade{
			Wallet: "0xw", ConditionID: "c1", Size: 1, Price: 0.5,
			Timestamp: int64(i),
		})
	}

	cfg := DefaultConfig()
	cfg.RecentTradesSize = 3
	w := New(&fakeSource{trades: feed}, &fakeSink{}, nil, cfg)

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	recent := w.RecentTrades()
	require.Len(t, recent, 3)
	// Oldest-first snapshot of the newest three trades.
	assert.Equal(t, int64(3), recent[0].Timestamp)
	assert.Equal(t, int64(5), recent[2].Timestamp)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := newTestWatcher(nil, &fakeSink{})

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestRunOnceEmptyBatch(t *testing.T) {
	w := newTestWatcher(nil, &fakeSink{})

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 0, stats.Alerted)
}
