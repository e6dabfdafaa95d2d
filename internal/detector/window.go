package detector

import (
	"sort"

	"github.com/whalewatch/engine/internal/ringbuf"
)

// minMedianSamples is the minimum window size before a median is defined.
const minMedianSamples = 5

// PriceWindows keeps a bounded FIFO of recent strictly-positive trade prices
// per market. The median is derived on demand, never stored.
//
// Not safe for concurrent use; the cycle runner is the only writer.
type PriceWindows struct {
	capacity int
	markets  map[string]*ringbuf.Ring[float64]
}

// NewPriceWindows creates the per-market window map with the given
// per-window capacity.
func NewPriceWindows(capacity int) *PriceWindows {
	return &PriceWindows{
		capacity: capacity,
		markets:  make(map[string]*ringbuf.Ring[float64]),
	}
}

// Observe appends a price to the market's window. Non-positive prices are
// ignored. Once the window is full the oldest price is evicted.
func (w *PriceWindows) Observe(marketID string, price float64) {
	if price <= 0 {
		return
	}
	ring, ok := w.markets[marketID]
	if !ok {
		ring = ringbuf.New[float64](w.capacity)
		w.markets[marketID] = ring
	}
	ring.Append(price)
}

// Median returns the median of the market's current window. It reports
// ok=false until the window holds at least minMedianSamples prices.
func (w *PriceWindows) Median(marketID string) (float64, bool) {
	ring, ok := w.markets[marketID]
	if !ok || ring.Len() < minMedianSamples {
		return 0, false
	}
	prices := ring.Values()
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid], true
	}
	return (prices[mid-1] + prices[mid]) / 2, true
}
