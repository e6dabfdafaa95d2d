package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "200" {
			t.Errorf("limit = %q, want 200", q.Get("limit"))
		}
		if q.Get("offset") != "0" {
			t.Errorf("offset = %q, want 0", q.Get("offset"))
		}
		if q.Get("takerOnly") != "true" {
			t.Errorf("takerOnly = %q, want true", q.Get("takerOnly"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"proxyWallet":"0xaaa","side":"BUY","conditionId":"c1","size":100,"price":0.55,"timestamp":1700000002,"title":"Market A","slug":"market-a","eventSlug":"event-a","outcome":"Yes"},
			{"proxyWallet":"0xbbb","side":"SELL","conditionId":"c2","size":50,"price":0.4,"timestamp":1700000001}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 200, 10*time.Second)
	trades, err := c.FetchTrades(context.Background())
	if err != nil {
		t.Fatalf("FetchTrades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}

	first := trades[0]
	if first.Wallet != "0xaaa" || first.ConditionID != "c1" || first.Size != 100 ||
		first.Price != 0.55 || first.Timestamp != 1700000002 || first.Outcome != "Yes" {
		t.Errorf("unexpected first trade: %+v", first)
	}

	// Absent string fields default to empty, numerics stay zero-valued.
	second := trades[1]
	if second.Title != "" || second.EventSlug != "" || second.Outcome != "" {
		t.Errorf("absent fields not defaulted: %+v", second)
	}
}

func TestFetchTradesSkipsMalformedRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"proxyWallet":"0xaaa","size":10,"price":0.5,"timestamp":1},
			{"proxyWallet":"0xbad","size":"not-a-number","price":0.5,"timestamp":2},
			{"proxyWallet":"0xccc","size":20,"price":0.6,"timestamp":3}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 200, 10*time.Second)
	trades, err := c.FetchTrades(context.Background())
	if err != nil {
		t.Fatalf("FetchTrades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2 (malformed record dropped)", len(trades))
	}
	if trades[0].Wallet != "0xaaa" || trades[1].Wallet != "0xccc" {
		t.Errorf("wrong surviving trades: %+v", trades)
	}
}

func TestFetchTradesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 200, 10*time.Second)
	if _, err := c.FetchTrades(context.Background()); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestFetchTradesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 200, 10*time.Second)
	if _, err := c.FetchTrades(context.Background()); err == nil {
		t.Fatal("expected error on non-array body")
	}
}
