package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteSnapshot is a single asset's market data as returned by the
// upstream provider for one fetch. It is never persisted; every request
// recomputes it. All monetary fields are USD.
//
// Price is required and decoded strictly at the provider boundary. The
// remaining market fields are optional: the provider omits them for
// thinly traded assets, so they serialize as null rather than zero.
type QuoteSnapshot struct {
	AssetID          int64               `json:"id"`
	Symbol           string              `json:"symbol"`
	Name             string              `json:"name"`
	Rank             int                 `json:"rank"`
	Price            decimal.Decimal     `json:"price"`
	PercentChange24h decimal.NullDecimal `json:"percent_change_24h"`
	MarketCap        decimal.NullDecimal `json:"market_cap"`
	Volume24h        decimal.NullDecimal `json:"volume_24h"`
	LastUpdated      time.Time           `json:"last_updated"`
}
