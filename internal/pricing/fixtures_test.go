package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"priceScope/internal/model"
	"priceScope/internal/storage/memory"
)

const (
	nativeToken = "0x1000000000000000000000000000000000000001"
	usdtToken   = "0x2000000000000000000000000000000000000002"
	usdcToken   = "0x3000000000000000000000000000000000000003"
	fooToken    = "0x4000000000000000000000000000000000000004"
	barToken    = "0x5000000000000000000000000000000000000005"

	primaryPair = "0xa00000000000000000000000000000000000000a"
	legacyPair  = "0xb00000000000000000000000000000000000000b"
	fooUSDTPair = "0xc00000000000000000000000000000000000000c"
	fooWETHPair = "0xd00000000000000000000000000000000000000d"
	fooUSDCPair = "0xe00000000000000000000000000000000000000e"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func testParams(whitelist ...string) Params {
	if len(whitelist) == 0 {
		whitelist = []string{usdtToken, nativeToken, usdcToken}
	}
	return Params{
		NativeToken:        nativeToken,
		PrimaryStablePair:  primaryPair,
		LegacyStablePair:   legacyPair,
		Whitelist:          whitelist,
		MinLiquidityNative: dec("0.1"),
		MinUSDNewPairs:     dec("100"),
		ThinPoolLPCount:    5,
	}
}

func mustRules(t *testing.T, p Params) *Rules {
	t.Helper()
	rules, err := NewRules(p)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	return rules
}

func newPair(address, token0, token1 string, reserve0, reserve1, reserveNative string) model.Pair {
	pair := model.Pair{Address: address, Token0: token0, Token1: token1}
	pair.SetReserves(dec(reserve0), dec(reserve1))
	pair.ReserveNative = dec(reserveNative)
	return pair
}

func seedAnchors(store *memory.Store) {
	store.PutToken(model.Token{Address: nativeToken, DerivedNative: dec("1")})
	store.PutToken(model.Token{Address: usdtToken, DerivedNative: dec("0.5")})
	store.PutToken(model.Token{Address: usdcToken, DerivedNative: dec("0.5")})
	store.PutToken(model.Token{Address: fooToken})
}

type fixedPrices struct {
	native  decimal.Decimal
	derived map[string]decimal.Decimal
}

func (p fixedPrices) DerivedNative(token string) decimal.Decimal { return p.derived[token] }
func (p fixedPrices) NativePriceUSD() decimal.Decimal            { return p.native }

type stubLookup struct {
	pairs map[[2]string]string
	err   error
}

func (l stubLookup) GetPair(_ context.Context, tokenA, tokenB string) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	if addr, ok := l.pairs[[2]string{tokenA, tokenB}]; ok {
		return addr, nil
	}
	return model.ZeroAddress, nil
}

var errLookup = errors.New("rpc unavailable")
