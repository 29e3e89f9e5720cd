package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/coinwatch/coinwatch/internal/auth"
	"github.com/coinwatch/coinwatch/internal/handler/dto"
	"github.com/coinwatch/coinwatch/internal/marketdata"
	"github.com/coinwatch/coinwatch/internal/model"
	"github.com/coinwatch/coinwatch/internal/repository"
	"github.com/coinwatch/coinwatch/internal/service"
)

// memAssetStore is an in-memory TrackedAssetStore for handler tests.
type memAssetStore struct {
	assets []*model.TrackedAsset
}

func (m *memAssetStore) CreateTrackedAsset(ctx context.Context, asset *model.TrackedAsset) error {
	for _, existing := range m.assets {
		if existing.AccountID == asset.AccountID && existing.AssetID == asset.AssetID {
			return repository.ErrTrackedAssetExists
		}
	}
	clone := *asset
	m.assets = append(m.assets, &clone)
	return nil
}

func (m *memAssetStore) DeleteTrackedAsset(ctx context.Context, accountID string, assetID int64) (bool, error) {
	for i, asset := range m.assets {
		if asset.AccountID == accountID && asset.AssetID == assetID {
			m.assets = append(m.assets[:i], m.assets[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memAssetStore) ListTrackedAssets(ctx context.Context, accountID string) ([]*model.TrackedAsset, error) {
	var out []*model.TrackedAsset
	for _, asset := range m.assets {
		if asset.AccountID == accountID {
			clone := *asset
			out = append(out, &clone)
		}
	}
	return out, nil
}

// stubProvider is a canned QuoteProvider for handler tests.
type stubProvider struct {
	listings []model.QuoteSnapshot
	quotes   []model.QuoteSnapshot
	err      error
}

func (p *stubProvider) Listings(ctx context.Context, start, limit int) ([]model.QuoteSnapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.listings, nil
}

func (p *stubProvider) Quotes(ctx context.Context, ids []int64) ([]model.QuoteSnapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.quotes, nil
}

func quote(id int64, symbol, name string, rank int, price string) model.QuoteSnapshot {
	return model.QuoteSnapshot{
		AssetID:     id,
		Symbol:      symbol,
		Name:        name,
		Rank:        rank,
		Price:       decimal.RequireFromString(price),
		LastUpdated: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func newPortfolioHandler(store service.TrackedAssetStore, provider service.QuoteProvider) *PortfolioHandler {
	svc := service.NewPortfolioService(store, provider, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPortfolioHandler(svc, logger)
}

func authedRequest(method, path string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	account := &model.AccountView{ID: "acct_1", FullName: "Alice", Email: "a@example.com"}
	return req.WithContext(auth.ContextWithAccount(req.Context(), account))
}

func TestPortfolioHandler_Search(t *testing.T) {
	provider := &stubProvider{listings: []model.QuoteSnapshot{
		quote(1, "BTC", "Bitcoin", 1, "64000.12"),
		quote(1027, "ETH", "Ethereum", 2, "3200.5"),
	}}
	h := newPortfolioHandler(&memAssetStore{}, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cryptos/search?q=bit", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response dto.QuoteListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data) != 1 || response.Data[0].Symbol != "BTC" {
		t.Errorf("unexpected search results: %+v", response.Data)
	}
}

func TestPortfolioHandler_Search_QueryTooShort(t *testing.T) {
	h := newPortfolioHandler(&memAssetStore{}, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cryptos/search?q=b", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "QUERY_TOO_SHORT" {
		t.Errorf("expected code QUERY_TOO_SHORT, got %s", response.Code)
	}
}

func TestPortfolioHandler_Search_UpstreamError(t *testing.T) {
	provider := &stubProvider{err: &marketdata.UpstreamError{StatusCode: 429, Code: 1008, Message: "rate limited"}}
	h := newPortfolioHandler(&memAssetStore{}, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cryptos/search?q=bit", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "UPSTREAM_ERROR" {
		t.Errorf("expected code UPSTREAM_ERROR, got %s", response.Code)
	}
}

func TestPortfolioHandler_AddTracked(t *testing.T) {
	store := &memAssetStore{}
	h := newPortfolioHandler(store, &stubProvider{})

	body, _ := json.Marshal(dto.TrackAssetRequest{AssetID: 1, Symbol: "btc", Name: "Bitcoin"})

	rec := httptest.NewRecorder()
	h.AddTracked(rec, authedRequest(http.MethodPost, "/api/v1/cryptos/tracked", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response dto.TrackAssetResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Created {
		t.Error("expected created=true on first add")
	}

	// Same asset again is a 200 no-op, not a second row.
	rec = httptest.NewRecorder()
	h.AddTracked(rec, authedRequest(http.MethodPost, "/api/v1/cryptos/tracked", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on duplicate add, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Created {
		t.Error("expected created=false on duplicate add")
	}
	if len(store.assets) != 1 {
		t.Errorf("expected 1 tracked asset, got %d", len(store.assets))
	}
}

func TestPortfolioHandler_AddTracked_Invalid(t *testing.T) {
	h := newPortfolioHandler(&memAssetStore{}, &stubProvider{})

	body, _ := json.Marshal(dto.TrackAssetRequest{AssetID: 0, Symbol: "BTC", Name: "Bitcoin"})
	rec := httptest.NewRecorder()
	h.AddTracked(rec, authedRequest(http.MethodPost, "/api/v1/cryptos/tracked", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestPortfolioHandler_RemoveTracked(t *testing.T) {
	store := &memAssetStore{}
	h := newPortfolioHandler(store, &stubProvider{})

	body, _ := json.Marshal(dto.TrackAssetRequest{AssetID: 1, Symbol: "BTC", Name: "Bitcoin"})
	rec := httptest.NewRecorder()
	h.AddTracked(rec, authedRequest(http.MethodPost, "/api/v1/cryptos/tracked", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup add failed: %d", rec.Code)
	}

	router := chi.NewRouter()
	router.Delete("/api/v1/cryptos/tracked/{assetID}", h.RemoveTracked)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/cryptos/tracked/1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}

	// Second delete finds nothing.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/cryptos/tracked/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	// Garbage asset IDs never reach the service.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/cryptos/tracked/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestPortfolioHandler_ListTracked(t *testing.T) {
	store := &memAssetStore{}
	provider := &stubProvider{quotes: []model.QuoteSnapshot{
		quote(1, "BTC", "Bitcoin", 1, "64000.12"),
	}}
	h := newPortfolioHandler(store, provider)

	for _, asset := range []dto.TrackAssetRequest{
		{AssetID: 1, Symbol: "BTC", Name: "Bitcoin"},
		{AssetID: 1027, Symbol: "ETH", Name: "Ethereum"},
	} {
		body, _ := json.Marshal(asset)
		rec := httptest.NewRecorder()
		h.AddTracked(rec, authedRequest(http.MethodPost, "/api/v1/cryptos/tracked", body))
		if rec.Code != http.StatusCreated {
			t.Fatalf("setup add failed: %d", rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ListTracked(rec, authedRequest(http.MethodGet, "/api/v1/cryptos/tracked", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response dto.TrackedAssetListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Data) != 2 {
		t.Fatalf("expected 2 tracked assets, got %d", len(response.Data))
	}
	if response.Data[0].Quote == nil || !response.Data[0].Quote.Price.Equal(decimal.RequireFromString("64000.12")) {
		t.Errorf("expected a live quote for BTC, got %+v", response.Data[0].Quote)
	}
	// The provider returned nothing for ETH. It stays listed, quote-less.
	if response.Data[1].Quote != nil {
		t.Errorf("expected no quote for ETH, got %+v", response.Data[1].Quote)
	}
}

func TestPortfolioHandler_ListTracked_WireShape(t *testing.T) {
	store := &memAssetStore{}
	provider := &stubProvider{quotes: []model.QuoteSnapshot{
		quote(1, "BTC", "Bitcoin", 1, "64000.12"),
	}}
	h := newPortfolioHandler(store, provider)

	body, _ := json.Marshal(dto.TrackAssetRequest{AssetID: 1, Symbol: "BTC", Name: "Bitcoin"})
	rec := httptest.NewRecorder()
	h.AddTracked(rec, authedRequest(http.MethodPost, "/api/v1/cryptos/tracked", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup add failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ListTracked(rec, authedRequest(http.MethodGet, "/api/v1/cryptos/tracked", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	// Decode into raw JSON so the key casing is actually checked.
	var raw struct {
		Data []map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(raw.Data) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(raw.Data))
	}

	entry := raw.Data[0]
	for _, key := range []string{"asset_id", "symbol", "name", "added_at", "quote"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("response entry missing key %q", key)
		}
	}
	// The row ID and owning account are internal and must not leak.
	for _, key := range []string{"ID", "AccountID", "AssetID", "AddedAt", "id", "account_id"} {
		if _, ok := entry[key]; ok {
			t.Errorf("response entry leaks key %q", key)
		}
	}
}

func TestPortfolioHandler_ListTracked_Empty(t *testing.T) {
	h := newPortfolioHandler(&memAssetStore{}, &stubProvider{err: &marketdata.TransportError{}})

	rec := httptest.NewRecorder()
	h.ListTracked(rec, authedRequest(http.MethodGet, "/api/v1/cryptos/tracked", nil))

	// An empty watch list never touches the provider, so the broken
	// stub must not matter.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var response dto.TrackedAssetListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data) != 0 {
		t.Errorf("expected empty list, got %d entries", len(response.Data))
	}
}
