package pricing

import (
	"testing"

	"priceScope/internal/storage/memory"
)

func TestNativePriceUSD(t *testing.T) {
	primary := newPair(primaryPair, usdtToken, nativeToken, "2000", "4", "8")
	legacy := newPair(legacyPair, nativeToken, usdtToken, "5", "2100", "10")

	cases := []struct {
		name  string
		pairs []string
		want  string
	}{
		{name: "primary only", pairs: []string{primaryPair}, want: "500"},
		{name: "legacy only", pairs: []string{legacyPair}, want: "420"},
		{name: "both prefers primary", pairs: []string{primaryPair, legacyPair}, want: "500"},
		{name: "neither", pairs: nil, want: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.New()
			for _, addr := range tc.pairs {
				switch addr {
				case primaryPair:
					store.PutPair(primary)
				case legacyPair:
					store.PutPair(legacy)
				}
			}
			oracle := NewNativePriceOracle(store, mustRules(t, testParams()))
			got := oracle.NativePriceUSD()
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("native price mismatch: got %s want %s", got, tc.want)
			}
		})
	}
}

func TestNativePriceUSDNoAnchorsConfigured(t *testing.T) {
	params := testParams()
	params.PrimaryStablePair = ""
	params.LegacyStablePair = ""

	store := memory.New()
	store.PutPair(newPair(primaryPair, usdtToken, nativeToken, "2000", "4", "8"))

	got := NewNativePriceOracle(store, mustRules(t, params)).NativePriceUSD()
	if !got.IsZero() {
		t.Fatalf("expected zero without anchors, got %s", got)
	}
}
