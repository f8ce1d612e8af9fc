package pricing

import (
	"github.com/shopspring/decimal"

	"priceScope/internal/model"
)

// NativePriceOracle resolves the native coin USD price from the stable anchor pairs.
type NativePriceOracle struct {
	store Store
	rules *Rules
}

func NewNativePriceOracle(store Store, rules *Rules) *NativePriceOracle {
	return &NativePriceOracle{store: store, rules: rules}
}

// NativePriceUSD returns the primary pair's token0 price, else the legacy
// pair's token1 price, else zero. Zero is a valid degraded state, not an error.
func (o *NativePriceOracle) NativePriceUSD() decimal.Decimal {
	// stablecoin is token0 of the primary pair
	if pair, ok := o.load(o.rules.primaryStablePair); ok {
		return pair.Token0Price
	}
	// native is token1 of the legacy pair
	if pair, ok := o.load(o.rules.legacyStablePair); ok {
		return pair.Token1Price
	}
	return decimal.Zero
}

func (o *NativePriceOracle) load(address string) (model.Pair, bool) {
	if address == "" {
		return model.Pair{}, false
	}
	return o.store.LoadPair(address)
}
