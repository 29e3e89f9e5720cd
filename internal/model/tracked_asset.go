package model

import "time"

// TrackedAsset is one asset on an account's watch list.
// The (AccountID, AssetID) pair is unique; AssetID is the upstream
// provider's numeric identifier, not the symbol.
// The row ID and owning account never serialize; responses identify
// the asset by the provider's AssetID.
type TrackedAsset struct {
	ID        string    `json:"-"`
	AccountID string    `json:"-"`
	AssetID   int64     `json:"asset_id"`
	Symbol    string    `json:"symbol"` // stored uppercased
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"added_at"`
}

// TrackedAssetQuote is a tracked asset joined with its live quote.
// Quote is nil when the upstream provider did not return a snapshot
// for the asset; the tracked record itself is still listed.
type TrackedAssetQuote struct {
	TrackedAsset
	Quote *QuoteSnapshot `json:"quote,omitempty"`
}
