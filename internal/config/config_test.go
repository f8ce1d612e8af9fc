package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"priceScope/internal/pricing"
)

func TestLoadAggregateDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadAggregate(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchSize != 1000 || cfg.Window != "5m" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	defaults := pricing.DefaultParams()
	if cfg.Pricing.Params.NativeToken != defaults.NativeToken {
		t.Fatalf("unexpected native token: %s", cfg.Pricing.Params.NativeToken)
	}
	if len(cfg.Pricing.Params.Whitelist) != len(defaults.Whitelist) {
		t.Fatalf("unexpected whitelist: %v", cfg.Pricing.Params.Whitelist)
	}
	if !cfg.Pricing.Params.MinLiquidityNative.Equal(defaults.MinLiquidityNative) {
		t.Fatalf("unexpected floor: %s", cfg.Pricing.Params.MinLiquidityNative)
	}
	if cfg.Chain.PairCacheSize != 4096 {
		t.Fatalf("unexpected cache size: %d", cfg.Chain.PairCacheSize)
	}
}

func TestLoadServeFromFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricer.yaml")
	content := `
listen: ":9000"
whitelist:
  - "0x1000000000000000000000000000000000000001"
  - "0x2000000000000000000000000000000000000002"
untracked-pairs: "0xa00000000000000000000000000000000000000a, 0xb00000000000000000000000000000000000000b"
min-usd-new-pairs: "250"
static-tokens:
  - address: "0x3000000000000000000000000000000000000003"
    symbol: "FOO"
    name: "Foo"
    decimals: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("listen", "", "")
	if err := flags.Parse([]string{"--listen", ":9100"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadServe(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9100" {
		t.Fatalf("flag should win over file, got %s", cfg.Listen)
	}
	if len(cfg.Pricing.Params.Whitelist) != 2 || len(cfg.Pricing.Params.UntrackedPairs) != 2 {
		t.Fatalf("unexpected lists: %+v", cfg.Pricing.Params)
	}
	if cfg.Pricing.Params.MinUSDNewPairs.String() != "250" {
		t.Fatalf("unexpected min usd: %s", cfg.Pricing.Params.MinUSDNewPairs)
	}
	if len(cfg.Pricing.StaticTokens) != 1 || cfg.Pricing.StaticTokens[0].Decimals != 8 {
		t.Fatalf("unexpected static tokens: %+v", cfg.Pricing.StaticTokens)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"", 0},
		{"1700000000", 1700000000},
		{"2023-11-14T22:13:20Z", 1700000000},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: got %d want %d", tc.in, got, tc.want)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseWindow(t *testing.T) {
	if got, err := ParseWindow("5m"); err != nil || got != 300 {
		t.Fatalf("5m: %d %v", got, err)
	}
	if got, err := ParseWindow("3600"); err != nil || got != 3600 {
		t.Fatalf("3600: %d %v", got, err)
	}
	if _, err := ParseWindow("1500ms"); err == nil {
		t.Fatalf("expected sub-second error")
	}
}
