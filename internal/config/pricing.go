package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"priceScope/internal/pricing"
	"priceScope/internal/tokens"
)

// Pricing holds the deployment constants and static token overrides.
type Pricing struct {
	Params       pricing.Params
	Factory      string
	StaticTokens []tokens.Definition
}

func setPricingDefaults(v *viper.Viper) {
	defaults := pricing.DefaultParams()
	v.SetDefault("native-token", defaults.NativeToken)
	v.SetDefault("primary-stable-pair", defaults.PrimaryStablePair)
	v.SetDefault("legacy-stable-pair", defaults.LegacyStablePair)
	v.SetDefault("whitelist", defaults.Whitelist)
	v.SetDefault("min-liquidity-native", defaults.MinLiquidityNative.String())
	v.SetDefault("min-usd-new-pairs", defaults.MinUSDNewPairs.String())
	v.SetDefault("thin-pool-lp-count", defaults.ThinPoolLPCount)
}

func loadPricing(v *viper.Viper) (Pricing, error) {
	minLiquidity, err := decimal.NewFromString(v.GetString("min-liquidity-native"))
	if err != nil {
		return Pricing{}, fmt.Errorf("min-liquidity-native: %w", err)
	}
	minUSD, err := decimal.NewFromString(v.GetString("min-usd-new-pairs"))
	if err != nil {
		return Pricing{}, fmt.Errorf("min-usd-new-pairs: %w", err)
	}

	var static []tokens.Definition
	if v.IsSet("static-tokens") {
		if err := v.UnmarshalKey("static-tokens", &static); err != nil {
			return Pricing{}, fmt.Errorf("static-tokens: %w", err)
		}
	}

	return Pricing{
		Params: pricing.Params{
			NativeToken:        v.GetString("native-token"),
			PrimaryStablePair:  v.GetString("primary-stable-pair"),
			LegacyStablePair:   v.GetString("legacy-stable-pair"),
			Whitelist:          getStringSlice(v, "whitelist"),
			UntrackedPairs:     getStringSlice(v, "untracked-pairs"),
			MinLiquidityNative: minLiquidity,
			MinUSDNewPairs:     minUSD,
			ThinPoolLPCount:    v.GetUint64("thin-pool-lp-count"),
		},
		Factory:      v.GetString("factory"),
		StaticTokens: static,
	}, nil
}
