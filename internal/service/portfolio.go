package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/coinwatch/coinwatch/internal/marketdata"
	"github.com/coinwatch/coinwatch/internal/metrics"
	"github.com/coinwatch/coinwatch/internal/model"
	"github.com/coinwatch/coinwatch/internal/repository"
)

// Portfolio service errors.
var (
	ErrQueryTooShort = errors.New("search query must be at least 2 characters")
	ErrInvalidAsset  = errors.New("asset id, symbol and name are required")
)

const (
	// searchListingLimit bounds the bulk listing a search filters over.
	searchListingLimit = 1000
	// defaultSearchLimit caps results when the caller passes no limit.
	defaultSearchLimit = 20
	minQueryLength     = 2
)

// TrackedAssetStore is the persistence contract for watch-list rows.
type TrackedAssetStore interface {
	CreateTrackedAsset(ctx context.Context, asset *model.TrackedAsset) error
	DeleteTrackedAsset(ctx context.Context, accountID string, assetID int64) (bool, error)
	ListTrackedAssets(ctx context.Context, accountID string) ([]*model.TrackedAsset, error)
}

// QuoteProvider fetches live market data. *marketdata.Client satisfies
// it; tests use fakes.
type QuoteProvider interface {
	Listings(ctx context.Context, start, limit int) ([]model.QuoteSnapshot, error)
	Quotes(ctx context.Context, ids []int64) ([]model.QuoteSnapshot, error)
}

// PortfolioService joins an account's tracked assets with live quotes
// and searches the upstream listing.
type PortfolioService struct {
	store    TrackedAssetStore
	provider QuoteProvider
	metrics  metrics.Recorder
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(store TrackedAssetStore, provider QuoteProvider, recorder metrics.Recorder) *PortfolioService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PortfolioService{
		store:    store,
		provider: provider,
		metrics:  recorder,
	}
}

// Search filters the top of the upstream listing by case-insensitive
// substring match on name or symbol. Result order is upstream rank
// order; no fuzzy matching, no scoring.
func (s *PortfolioService) Search(ctx context.Context, query string, limit int) ([]model.QuoteSnapshot, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, ErrQueryTooShort
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	listings, err := s.fetchListings(ctx, 1, searchListingLimit)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(query)
	results := make([]model.QuoteSnapshot, 0, limit)
	for _, snapshot := range listings {
		if !strings.Contains(strings.ToLower(snapshot.Name), term) &&
			!strings.Contains(strings.ToLower(snapshot.Symbol), term) {
			continue
		}
		results = append(results, snapshot)
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

// Listings exposes one page of the ranked upstream listing.
func (s *PortfolioService) Listings(ctx context.Context, start, limit int) ([]model.QuoteSnapshot, error) {
	if start <= 0 {
		start = 1
	}
	if limit <= 0 || limit > searchListingLimit {
		limit = 100
	}
	return s.fetchListings(ctx, start, limit)
}

// AddTrackedAsset puts an asset on the account's watch list.
// Returns false, without error, when the pair is already tracked:
// a duplicate add is a no-op, never an overwrite.
func (s *PortfolioService) AddTrackedAsset(ctx context.Context, accountID string, assetID int64, symbol, name string) (bool, error) {
	symbol = strings.TrimSpace(symbol)
	name = strings.TrimSpace(name)
	if assetID <= 0 || symbol == "" || name == "" {
		return false, ErrInvalidAsset
	}

	asset := &model.TrackedAsset{
		ID:        ulid.Make().String(),
		AccountID: accountID,
		AssetID:   assetID,
		Symbol:    strings.ToUpper(symbol),
		Name:      name,
		AddedAt:   time.Now().UTC(),
	}

	if err := s.store.CreateTrackedAsset(ctx, asset); err != nil {
		if errors.Is(err, repository.ErrTrackedAssetExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to track asset: %w", err)
	}

	s.metrics.IncTrackedAssetAdded()

	return true, nil
}

// RemoveTrackedAsset takes an asset off the account's watch list.
// Returns false when no matching row existed.
func (s *PortfolioService) RemoveTrackedAsset(ctx context.Context, accountID string, assetID int64) (bool, error) {
	removed, err := s.store.DeleteTrackedAsset(ctx, accountID, assetID)
	if err != nil {
		return false, fmt.Errorf("failed to untrack asset: %w", err)
	}

	if removed {
		s.metrics.IncTrackedAssetRemoved()
	}

	return removed, nil
}

// ListTrackedAssets returns the account's watch list enriched with live
// quotes, in stored (insertion) order. An empty watch list performs no
// upstream call. Assets the provider omits keep a nil Quote; an
// upstream omission is tolerated, not an error.
func (s *PortfolioService) ListTrackedAssets(ctx context.Context, accountID string) ([]model.TrackedAssetQuote, error) {
	tracked, err := s.store.ListTrackedAssets(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked assets: %w", err)
	}

	if len(tracked) == 0 {
		return []model.TrackedAssetQuote{}, nil
	}

	ids := make([]int64, len(tracked))
	for i, asset := range tracked {
		ids[i] = asset.AssetID
	}

	s.metrics.IncUpstreamCall()
	snapshots, err := s.provider.Quotes(ctx, ids)
	if err != nil {
		s.recordUpstreamFailure(err)
		return nil, err
	}

	byID := make(map[int64]model.QuoteSnapshot, len(snapshots))
	for _, snapshot := range snapshots {
		byID[snapshot.AssetID] = snapshot
	}

	enriched := make([]model.TrackedAssetQuote, 0, len(tracked))
	for _, asset := range tracked {
		entry := model.TrackedAssetQuote{TrackedAsset: *asset}
		if snapshot, ok := byID[asset.AssetID]; ok {
			entry.Quote = &snapshot
		}
		enriched = append(enriched, entry)
	}

	return enriched, nil
}

func (s *PortfolioService) fetchListings(ctx context.Context, start, limit int) ([]model.QuoteSnapshot, error) {
	s.metrics.IncUpstreamCall()
	listings, err := s.provider.Listings(ctx, start, limit)
	if err != nil {
		s.recordUpstreamFailure(err)
		return nil, err
	}
	return listings, nil
}

func (s *PortfolioService) recordUpstreamFailure(err error) {
	var transport *marketdata.TransportError
	if errors.As(err, &transport) {
		s.metrics.IncUpstreamFailure("transport")
		return
	}
	s.metrics.IncUpstreamFailure("upstream")
}
