package pricing

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"priceScope/internal/model"
	"priceScope/internal/storage/memory"
)

func TestFindNativePerTokenNative(t *testing.T) {
	store := memory.New()
	resolver := NewTokenPriceResolver(store, store, mustRules(t, testParams()), nil, zap.NewNop())

	got := resolver.FindNativePerToken(context.Background(), nativeToken)
	if !got.Equal(dec("1")) {
		t.Fatalf("native token should price at 1, got %s", got)
	}
}

func TestFindNativePerTokenUnpaired(t *testing.T) {
	store := memory.New()
	seedAnchors(store)
	store.PutPair(newPair(fooUSDTPair, barToken, usdtToken, "10", "10", "100"))

	resolver := NewTokenPriceResolver(store, store, mustRules(t, testParams()), nil, nil)
	got := resolver.FindNativePerToken(context.Background(), fooToken)
	if !got.IsZero() {
		t.Fatalf("unpaired token should price at 0, got %s", got)
	}
}

func TestFindNativePerTokenMostLiquidWins(t *testing.T) {
	cases := []struct {
		name      string
		whitelist []string
		usdtRes   string
		nativeRes string
		want      string
	}{
		// foo/usdt: 1 foo = 4 usdt = 2 native; foo/native: 1 foo = 3 native
		{name: "native deeper, usdt first", whitelist: []string{usdtToken, nativeToken}, usdtRes: "50", nativeRes: "80", want: "3"},
		{name: "native deeper, native first", whitelist: []string{nativeToken, usdtToken}, usdtRes: "50", nativeRes: "80", want: "3"},
		{name: "usdt deeper, usdt first", whitelist: []string{usdtToken, nativeToken}, usdtRes: "80", nativeRes: "50", want: "2"},
		{name: "usdt deeper, native first", whitelist: []string{nativeToken, usdtToken}, usdtRes: "80", nativeRes: "50", want: "2"},
		{name: "tie keeps earliest usdt", whitelist: []string{usdtToken, nativeToken}, usdtRes: "50", nativeRes: "50", want: "2"},
		{name: "tie keeps earliest native", whitelist: []string{nativeToken, usdtToken}, usdtRes: "50", nativeRes: "50", want: "3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.New()
			seedAnchors(store)
			// foo is token0: token1Price = usdt per foo
			store.PutPair(newPair(fooUSDTPair, fooToken, usdtToken, "100", "400", tc.usdtRes))
			// foo is token1: token0Price = native per foo
			store.PutPair(newPair(fooWETHPair, nativeToken, fooToken, "300", "100", tc.nativeRes))

			resolver := NewTokenPriceResolver(store, store, mustRules(t, testParams(tc.whitelist...)), nil, nil)
			got := resolver.FindNativePerToken(context.Background(), fooToken)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("price mismatch: got %s want %s", got, tc.want)
			}
		})
	}
}

func TestFindNativePerTokenLiquidityFloor(t *testing.T) {
	store := memory.New()
	seedAnchors(store)
	store.PutPair(newPair(fooWETHPair, nativeToken, fooToken, "300", "100", "0.1"))

	resolver := NewTokenPriceResolver(store, store, mustRules(t, testParams()), nil, nil)
	if got := resolver.FindNativePerToken(context.Background(), fooToken); !got.IsZero() {
		t.Fatalf("pair at the floor must not be selected, got %s", got)
	}

	store.PutPair(newPair(fooWETHPair, nativeToken, fooToken, "300", "100", "0.1000001"))
	if got := resolver.FindNativePerToken(context.Background(), fooToken); !got.Equal(dec("3")) {
		t.Fatalf("pair above the floor should be selected, got %s", got)
	}
}

func TestFindNativePerTokenConsistentWithReserves(t *testing.T) {
	store := memory.New()
	seedAnchors(store)
	reserveFoo, reserveNative := dec("1234.5"), dec("17.25")

	pair := model.Pair{Address: fooWETHPair, Token0: fooToken, Token1: nativeToken}
	pair.SetReserves(reserveFoo, reserveNative)
	pair.ReserveNative = dec("34.5")
	store.PutPair(pair)

	resolver := NewTokenPriceResolver(store, store, mustRules(t, testParams()), nil, nil)
	got := resolver.FindNativePerToken(context.Background(), fooToken)
	want := model.Quo(reserveNative, reserveFoo)
	if !got.Equal(want) {
		t.Fatalf("token0 side: got %s want reserve1/reserve0 = %s", got, want)
	}

	flipped := model.Pair{Address: fooWETHPair, Token0: nativeToken, Token1: fooToken}
	flipped.SetReserves(reserveNative, reserveFoo)
	flipped.ReserveNative = dec("34.5")
	store.PutPair(flipped)

	got = resolver.FindNativePerToken(context.Background(), fooToken)
	if !got.Equal(want) {
		t.Fatalf("token1 side: got %s want reserve0/reserve1 = %s", got, want)
	}
}

func TestFindNativePerTokenInvariantViolationSkipped(t *testing.T) {
	store := memory.New()
	seedAnchors(store)
	store.PutPair(newPair(fooUSDTPair, barToken, usdtToken, "100", "400", "50"))
	store.PutPair(newPair(fooWETHPair, nativeToken, fooToken, "300", "100", "20"))

	lookup := stubLookup{pairs: map[[2]string]string{
		{fooToken, usdtToken}:   fooUSDTPair,
		{fooToken, nativeToken}: fooWETHPair,
	}}
	metrics := NewMetrics(nil)
	resolver := NewTokenPriceResolver(store, lookup, mustRules(t, testParams()), metrics, nil)

	got := resolver.FindNativePerToken(context.Background(), fooToken)
	if !got.Equal(dec("3")) {
		t.Fatalf("expected the valid pair to be used, got %s", got)
	}
	if v := testutil.ToFloat64(metrics.InvariantViolations); v != 1 {
		t.Fatalf("expected one invariant violation, got %v", v)
	}
}

func TestFindNativePerTokenLookupErrorDegradesToZero(t *testing.T) {
	store := memory.New()
	seedAnchors(store)
	metrics := NewMetrics(nil)
	resolver := NewTokenPriceResolver(store, stubLookup{err: errLookup}, mustRules(t, testParams()), metrics, nil)

	if got := resolver.FindNativePerToken(context.Background(), fooToken); !got.IsZero() {
		t.Fatalf("expected zero on lookup failure, got %s", got)
	}
	if v := testutil.ToFloat64(metrics.LookupErrors); v != 3 {
		t.Fatalf("expected one lookup error per anchor, got %v", v)
	}
}

func TestFindNativePerTokenMissingAnchorToken(t *testing.T) {
	store := memory.New()
	store.PutPair(newPair(fooUSDTPair, fooToken, usdtToken, "100", "400", "50"))

	resolver := NewTokenPriceResolver(store, store, mustRules(t, testParams()), nil, nil)
	if got := resolver.FindNativePerToken(context.Background(), fooToken); !got.IsZero() {
		t.Fatalf("expected zero when anchor token record is absent, got %s", got)
	}
}
