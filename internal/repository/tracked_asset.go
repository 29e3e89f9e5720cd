package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/coinwatch/coinwatch/internal/model"
)

// ErrTrackedAssetExists indicates the (account, asset) pair is already tracked.
var ErrTrackedAssetExists = errors.New("asset already tracked")

// CreateTrackedAsset inserts a new tracked asset row.
// The (account_id, asset_id) unique index enforces one row per pair;
// a concurrent duplicate add has exactly one winner.
func (r *Repository) CreateTrackedAsset(ctx context.Context, asset *model.TrackedAsset) error {
	query := `
		INSERT INTO tracked_assets (id, account_id, asset_id, symbol, name, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.AccountID,
		asset.AssetID,
		asset.Symbol,
		asset.Name,
		asset.AddedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTrackedAssetExists
		}
		return fmt.Errorf("failed to create tracked asset: %w", err)
	}

	return nil
}

// DeleteTrackedAsset removes one tracked asset row.
// Returns false when no matching row existed.
func (r *Repository) DeleteTrackedAsset(ctx context.Context, accountID string, assetID int64) (bool, error) {
	query := `
		DELETE FROM tracked_assets
		WHERE account_id = $1 AND asset_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, accountID, assetID)
	if err != nil {
		return false, fmt.Errorf("failed to delete tracked asset: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListTrackedAssets returns all tracked assets for an account in
// insertion order.
func (r *Repository) ListTrackedAssets(ctx context.Context, accountID string) ([]*model.TrackedAsset, error) {
	query := `
		SELECT id, account_id, asset_id, symbol, name, added_at
		FROM tracked_assets
		WHERE account_id = $1
		ORDER BY added_at, id
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*model.TrackedAsset, 0)
	for rows.Next() {
		var asset model.TrackedAsset
		if err := rows.Scan(
			&asset.ID,
			&asset.AccountID,
			&asset.AssetID,
			&asset.Symbol,
			&asset.Name,
			&asset.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tracked asset: %w", err)
		}
		assets = append(assets, &asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracked assets: %w", err)
	}

	return assets, nil
}
