package dto

import "github.com/coinwatch/coinwatch/internal/model"

// TrackAssetRequest represents the request body for adding an asset to
// the watch list.
type TrackAssetRequest struct {
	AssetID int64  `json:"asset_id"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// TrackAssetResponse reports the outcome of a track request.
// Created is false when the asset was already on the watch list.
type TrackAssetResponse struct {
	AssetID int64 `json:"asset_id"`
	Created bool  `json:"created"`
}

// QuoteListResponse represents a list of quote snapshots.
type QuoteListResponse struct {
	Data []model.QuoteSnapshot `json:"data"`
}

// TrackedAssetListResponse represents the watch list joined with live quotes.
type TrackedAssetListResponse struct {
	Data []model.TrackedAssetQuote `json:"data"`
}
