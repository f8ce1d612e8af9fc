package model

import "github.com/shopspring/decimal"

// Token is the per-address token record. DerivedNative is refreshed by the
// aggregation loop and read by the pricing core.
type Token struct {
	Address            string          `json:"address"`
	Symbol             string          `json:"symbol"`
	Name               string          `json:"name"`
	Decimals           uint8           `json:"decimals"`
	DerivedNative      decimal.Decimal `json:"derived_native"`
	TotalLiquidity     decimal.Decimal `json:"total_liquidity"`
	TradeVolume        decimal.Decimal `json:"trade_volume"`
	TradeVolumeUSD     decimal.Decimal `json:"trade_volume_usd"`
	UntrackedVolumeUSD decimal.Decimal `json:"untracked_volume_usd"`
	TxCount            uint64          `json:"tx_count"`
}
