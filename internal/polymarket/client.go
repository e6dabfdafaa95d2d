// Package polymarket provides a client for the Polymarket data-api trade feed.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/whalewatch/engine/internal/logger"
	"github.com/whalewatch/engine/internal/models"
)

// Client fetches recent taker-side trades from the data-api.
type Client struct {
	dataAPIURL string
	httpClient *http.Client
	limit      int
}

// tradeResponse mirrors one element of the data-api /trades response.
// Every field is optional on the wire; zero values stand in for absent ones.
type tradeResponse struct {
	ProxyWallet string  `json:"proxyWallet"`
	Side        string  `json:"side"`
	ConditionID string  `json:"conditionId"`
	Size        float64 `json:"size"`
	Price       float64 `json:"price"`
	Timestamp   int64   `json:"timestamp"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	EventSlug   string  `json:"eventSlug"`
	Outcome     string  `json:"outcome"`
}

// NewClient creates a new trade feed client. The timeout bounds the whole
// request including body read.
func NewClient(dataAPIURL string, limit int, timeout time.Duration) *Client {
	return &Client{
		dataAPIURL: dataAPIURL,
		httpClient: &http.Client{Timeout: timeout},
		limit:      limit,
	}
}

// FetchTrades retrieves up to the configured limit of the most recent
// taker-side trades, newest-first as served by the feed. A malformed element
// is dropped with a warning; a transport-level failure or non-2xx status
// fails the whole fetch.
//
// No in-fetch retry: a failed cycle is retried by the polling loop anyway,
// and retry sleeps would stretch the fetch well past its timeout.
func (c *Client) FetchTrades(ctx context.Context) ([]models.Trade, error) {
	u, err := url.Parse(c.dataAPIURL + "/trades")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("offset", "0")
	q.Set("takerOnly", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trades: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Decode the array shell first so one bad element cannot sink the batch.
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode trades: %w", err)
	}

	trades := make([]models.Trade, 0, len(raw))
	for i, entry := range raw {
		var tr tradeResponse
		if err := json.Unmarshal(entry, &tr); err != nil {
			logger.Warn("Failed to parse trade at index %d: %v", i, err)
			continue
		}
		trades = append(trades, models.Trade{
			Wallet:      tr.ProxyWallet,
			Side:        tr.Side,
			ConditionID: tr.ConditionID,
			Outcome:     tr.Outcome,
			Size:        tr.Size,
			Price:       tr.Price,
			Timestamp:   tr.Timestamp,
			Title:       tr.Title,
			Slug:        tr.Slug,
			EventSlug:   tr.EventSlug,
		})
	}

	return trades, nil
}
