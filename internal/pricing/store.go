package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"priceScope/internal/model"
)

// Store is read access to a consistent snapshot of pairs, tokens and the bundle.
type Store interface {
	LoadToken(address string) (model.Token, bool)
	LoadPair(address string) (model.Pair, bool)
	LoadBundle(id string) (model.Bundle, bool)
}

// PairLookup maps a token pair to its pool address. It returns
// model.ZeroAddress when no pair exists.
type PairLookup interface {
	GetPair(ctx context.Context, tokenA, tokenB string) (string, error)
}

// PriceSnapshotProvider exposes the externally maintained prices read by the tracker.
type PriceSnapshotProvider interface {
	DerivedNative(token string) decimal.Decimal
	NativePriceUSD() decimal.Decimal
}

// StorePrices reads prices from a Store. Missing records price at zero.
type StorePrices struct {
	Store Store
}

func (p StorePrices) DerivedNative(token string) decimal.Decimal {
	tok, ok := p.Store.LoadToken(token)
	if !ok {
		return decimal.Zero
	}
	return tok.DerivedNative
}

func (p StorePrices) NativePriceUSD() decimal.Decimal {
	bundle, ok := p.Store.LoadBundle(model.BundleID)
	if !ok {
		return decimal.Zero
	}
	return bundle.NativePriceUSD
}
