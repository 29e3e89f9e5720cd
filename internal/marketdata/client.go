// Package marketdata provides the upstream quote provider client.
// Payloads are decoded once at this boundary into typed snapshots;
// nothing upstream-shaped leaks into the rest of the application.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinwatch/coinwatch/internal/model"
)

const (
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

const apiKeyHeader = "X-CMC_PRO_API_KEY"

// Client fetches bulk listings and point quote lookups from the
// upstream provider over HTTPS. Calls are blocking and single-attempt:
// a failed fetch propagates immediately, retry policy belongs to the
// caller.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a provider client for the given API base URL and key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    newHTTPClient(),
	}
}

// newHTTPClient builds an HTTP client for upstream calls. Timeouts are
// transport-level only; the overall call has no internal deadline, the
// caller's context bounds it.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// envelope is the provider's response wrapper. A non-zero error_code is
// a logical failure even on HTTP 200.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

// assetPayload is one asset entry in the provider's wire format.
type assetPayload struct {
	ID          int64                   `json:"id"`
	Name        string                  `json:"name"`
	Symbol      string                  `json:"symbol"`
	Rank        int                     `json:"cmc_rank"`
	LastUpdated time.Time               `json:"last_updated"`
	Quote       map[string]quotePayload `json:"quote"`
}

type quotePayload struct {
	Price            *decimal.Decimal    `json:"price"`
	Volume24h        decimal.NullDecimal `json:"volume_24h"`
	PercentChange24h decimal.NullDecimal `json:"percent_change_24h"`
	MarketCap        decimal.NullDecimal `json:"market_cap"`
	LastUpdated      time.Time           `json:"last_updated"`
}

// Listings fetches one page of the ranked bulk listing, starting at
// rank start (1-based), at most limit entries, in upstream rank order.
func (c *Client) Listings(ctx context.Context, start, limit int) ([]model.QuoteSnapshot, error) {
	url := fmt.Sprintf("%s/cryptocurrency/listings/latest?start=%d&limit=%d&convert=USD",
		c.baseURL, start, limit)

	data, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var payload []assetPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &UpstreamError{StatusCode: http.StatusOK, Message: "malformed listings payload: " + err.Error()}
	}

	snapshots := make([]model.QuoteSnapshot, 0, len(payload))
	for _, entry := range payload {
		snapshot, err := entry.toSnapshot()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

// Quotes fetches point lookups for the given asset identifiers,
// batched into a single upstream call.
func (c *Client) Quotes(ctx context.Context, ids []int64) ([]model.QuoteSnapshot, error) {
	if len(ids) == 0 {
		return []model.QuoteSnapshot{}, nil
	}

	joined := make([]string, len(ids))
	for i, id := range ids {
		joined[i] = strconv.FormatInt(id, 10)
	}
	url := fmt.Sprintf("%s/cryptocurrency/quotes/latest?id=%s&convert=USD",
		c.baseURL, strings.Join(joined, ","))

	data, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	// The quotes endpoint keys entries by stringified asset ID.
	var payload map[string]assetPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &UpstreamError{StatusCode: http.StatusOK, Message: "malformed quotes payload: " + err.Error()}
	}

	snapshots := make([]model.QuoteSnapshot, 0, len(payload))
	for _, entry := range payload {
		snapshot, err := entry.toSnapshot()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	// Map iteration order is random; return a stable order.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].AssetID < snapshots[j].AssetID
	})

	return snapshots, nil
}

// get issues one upstream request and returns the envelope data on
// success. No retries.
func (c *Client) get(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "malformed response envelope: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Status.ErrorCode != 0 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Code:       env.Status.ErrorCode,
			Message:    env.Status.ErrorMessage,
		}
	}

	return env.Data, nil
}

// toSnapshot converts a wire entry to a typed snapshot. Missing
// required fields are an upstream failure, not a crash deeper in the
// call chain.
func (p *assetPayload) toSnapshot() (model.QuoteSnapshot, error) {
	if p.ID == 0 || p.Symbol == "" || p.Name == "" {
		return model.QuoteSnapshot{}, &UpstreamError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("asset entry missing identity fields (id=%d)", p.ID),
		}
	}

	usd, ok := p.Quote["USD"]
	if !ok || usd.Price == nil {
		return model.QuoteSnapshot{}, &UpstreamError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("asset %d missing USD price", p.ID),
		}
	}

	lastUpdated := usd.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = p.LastUpdated
	}

	return model.QuoteSnapshot{
		AssetID:          p.ID,
		Symbol:           p.Symbol,
		Name:             p.Name,
		Rank:             p.Rank,
		Price:            *usd.Price,
		PercentChange24h: usd.PercentChange24h,
		MarketCap:        usd.MarketCap,
		Volume24h:        usd.Volume24h,
		LastUpdated:      lastUpdated,
	}, nil
}
