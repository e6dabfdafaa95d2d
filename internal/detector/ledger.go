// Package detector implements the insider-trade detection core: per-wallet
// and per-market rolling state, the composite insider score, and the ordered
// suppression pipeline.
package detector

import (
	"github.com/whalewatch/engine/internal/models"
)

// WalletLedger tracks cumulative per-wallet activity for the life of the
// process. Entries are never evicted; bounded eviction would reset
// TradeCount and make long-lived wallets look new again.
//
// Not safe for concurrent use; the cycle runner is the only writer.
type WalletLedger struct {
	wallets map[string]*models.WalletStats
}

// NewWalletLedger creates an empty ledger.
func NewWalletLedger() *WalletLedger {
	return &WalletLedger{wallets: make(map[string]*models.WalletStats)}
}

// Observe records one trade for the wallet and returns the post-increment
// stats. An unseen wallet is created with FirstSeenTS set to the trade's
// timestamp and TradeCount 1; FirstSeenTS is never touched afterwards.
func (l *WalletLedger) Observe(wallet string, ts int64) models.WalletStats {
	ws, ok := l.wallets[wallet]
	if !ok {
		ws = &models.WalletStats{FirstSeenTS: ts}
		l.wallets[wallet] = ws
	}
	ws.TradeCount++
	return *ws
}

// Size returns the number of distinct wallets tracked.
func (l *WalletLedger) Size() int {
	return len(l.wallets)
}
