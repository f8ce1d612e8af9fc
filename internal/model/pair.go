package model

import "github.com/shopspring/decimal"

// DivisionScale is the number of fractional digits kept by Quo.
const DivisionScale int32 = 36

// Quo divides a by b rounding half-up to DivisionScale digits. It returns zero when b is zero.
func Quo(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, DivisionScale)
}

// Side identifies which slot of a pair a token occupies.
type Side int

const (
	SideNone Side = iota
	Side0
	Side1
)

// Pair is a constant-product pool between Token0 and Token1.
type Pair struct {
	Address                string          `json:"address"`
	Token0                 string          `json:"token0"`
	Token1                 string          `json:"token1"`
	Reserve0               decimal.Decimal `json:"reserve0"`
	Reserve1               decimal.Decimal `json:"reserve1"`
	ReserveNative          decimal.Decimal `json:"reserve_native"`
	ReserveUSD             decimal.Decimal `json:"reserve_usd"`
	TrackedReserveNative   decimal.Decimal `json:"tracked_reserve_native"`
	Token0Price            decimal.Decimal `json:"token0_price"`
	Token1Price            decimal.Decimal `json:"token1_price"`
	LiquidityProviderCount uint64          `json:"liquidity_provider_count"`
	VolumeToken0           decimal.Decimal `json:"volume_token0"`
	VolumeToken1           decimal.Decimal `json:"volume_token1"`
	VolumeUSD              decimal.Decimal `json:"volume_usd"`
	UntrackedVolumeUSD     decimal.Decimal `json:"untracked_volume_usd"`
	TxCount                uint64          `json:"tx_count"`
	CreatedAtBlock         uint64          `json:"created_at_block"`
	CreatedAtTimestamp     uint64          `json:"created_at_timestamp"`
}

// Side reports the slot of token within the pair.
func (p Pair) Side(token string) Side {
	switch token {
	case p.Token0:
		return Side0
	case p.Token1:
		return Side1
	default:
		return SideNone
	}
}

// SetReserves stores new reserves and recomputes both spot prices.
// Token0Price is token0 per token1 and Token1Price is token1 per token0.
func (p *Pair) SetReserves(reserve0, reserve1 decimal.Decimal) {
	p.Reserve0 = reserve0
	p.Reserve1 = reserve1
	p.Token0Price = Quo(reserve0, reserve1)
	p.Token1Price = Quo(reserve1, reserve0)
}
