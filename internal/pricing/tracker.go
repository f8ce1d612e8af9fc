package pricing

import (
	"github.com/shopspring/decimal"

	"priceScope/internal/model"
)

var two = decimal.NewFromInt(2)

type coverage int

const (
	coverNone coverage = iota
	coverToken0
	coverToken1
	coverBoth
)

// VolumeLiquidityTracker decides how much of a trade or pool value counts as tracked USD.
type VolumeLiquidityTracker struct {
	rules  *Rules
	prices PriceSnapshotProvider
}

func NewVolumeLiquidityTracker(rules *Rules, prices PriceSnapshotProvider) *VolumeLiquidityTracker {
	return &VolumeLiquidityTracker{rules: rules, prices: prices}
}

func (t *VolumeLiquidityTracker) coverage(token0, token1 string) coverage {
	w0 := t.rules.IsWhitelisted(token0)
	w1 := t.rules.IsWhitelisted(token1)
	switch {
	case w0 && w1:
		return coverBoth
	case w0:
		return coverToken0
	case w1:
		return coverToken1
	default:
		return coverNone
	}
}

func (t *VolumeLiquidityTracker) usdPrices(token0, token1 string) (decimal.Decimal, decimal.Decimal) {
	nativeUSD := t.prices.NativePriceUSD()
	return t.prices.DerivedNative(token0).Mul(nativeUSD), t.prices.DerivedNative(token1).Mul(nativeUSD)
}

// TrackedVolumeUSD returns the tracked USD value of a swap with the given leg amounts.
// Both whitelisted averages the legs, one whitelisted takes that leg, neither is zero.
// Untracked pairs always yield zero and thin pools must clear the minimum reserve gate.
func (t *VolumeLiquidityTracker) TrackedVolumeUSD(amount0 decimal.Decimal, token0 string, amount1 decimal.Decimal, token1 string, pair model.Pair) decimal.Decimal {
	price0, price1 := t.usdPrices(token0, token1)

	if t.rules.IsUntracked(pair.Address) {
		return decimal.Zero
	}

	cover := t.coverage(token0, token1)

	if pair.LiquidityProviderCount < t.rules.thinPoolLPCount {
		reserve0USD := pair.Reserve0.Mul(price0)
		reserve1USD := pair.Reserve1.Mul(price1)
		var gated decimal.Decimal
		switch cover {
		case coverBoth:
			gated = reserve0USD.Add(reserve1USD)
		case coverToken0:
			gated = reserve0USD.Mul(two)
		case coverToken1:
			gated = reserve1USD.Mul(two)
		}
		if cover != coverNone && gated.LessThan(t.rules.minUSDNewPairs) {
			return decimal.Zero
		}
	}

	switch cover {
	case coverBoth:
		return model.Quo(amount0.Mul(price0).Add(amount1.Mul(price1)), two)
	case coverToken0:
		return amount0.Mul(price0)
	case coverToken1:
		return amount1.Mul(price1)
	default:
		return decimal.Zero
	}
}

// TrackedLiquidityUSD returns the tracked USD value of a pool's reserves.
// A single whitelisted side is doubled to estimate the whole pool.
func (t *VolumeLiquidityTracker) TrackedLiquidityUSD(amount0 decimal.Decimal, token0 string, amount1 decimal.Decimal, token1 string) decimal.Decimal {
	price0, price1 := t.usdPrices(token0, token1)

	switch t.coverage(token0, token1) {
	case coverBoth:
		return amount0.Mul(price0).Add(amount1.Mul(price1))
	case coverToken0:
		return amount0.Mul(price0).Mul(two)
	case coverToken1:
		return amount1.Mul(price1).Mul(two)
	default:
		return decimal.Zero
	}
}
