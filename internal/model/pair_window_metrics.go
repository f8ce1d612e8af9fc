package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PairWindowMetrics stores aggregated metrics for a pair window.
type PairWindowMetrics struct {
	ChainID            uint64          `json:"chain_id"`
	PairAddress        string          `json:"pair_address"`
	WindowSizeSecs     int64           `json:"window_size_seconds"`
	WindowStart        time.Time       `json:"window_start"`
	WindowEnd          time.Time       `json:"window_end"`
	SwapCount          uint64          `json:"swap_count"`
	MintCount          uint64          `json:"mint_count"`
	BurnCount          uint64          `json:"burn_count"`
	Volume0            decimal.Decimal `json:"volume0"`
	Volume1            decimal.Decimal `json:"volume1"`
	VolumeUSD          decimal.Decimal `json:"volume_usd"`
	UntrackedVolumeUSD decimal.Decimal `json:"untracked_volume_usd"`
	Reserve0           decimal.Decimal `json:"reserve0"`
	Reserve1           decimal.Decimal `json:"reserve1"`
	ReserveUSD         decimal.Decimal `json:"reserve_usd"`
	TrackedReserveUSD  decimal.Decimal `json:"tracked_reserve_usd"`
	NativePriceUSD     decimal.Decimal `json:"native_price_usd"`
}
