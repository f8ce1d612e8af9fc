package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"priceScope/internal/config"
	"priceScope/internal/model"
	"priceScope/internal/pricing"
	"priceScope/internal/storage/postgres"
	"priceScope/internal/tokens"
)

type priceLine struct {
	Token         string          `json:"token,omitempty"`
	DerivedNative decimal.Decimal `json:"derived_native"`
	PriceUSD      decimal.Decimal `json:"price_usd"`
}

func runPrice(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	addresses, err := model.NormalizeAddresses(args)
	if err != nil {
		return err
	}
	rules, err := pricing.NewRules(cfg.Pricing.Params)
	if err != nil {
		return err
	}
	static, err := tokens.NewTable(cfg.Pricing.StaticTokens...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	snapshot, err := store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	deps, err := dialOnchain(ctx, cfg.Chain, cfg.Pricing, static, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	engine := pricing.NewEngine(snapshot, deps.pairLookup(snapshot), rules, nil, logger)
	nativeUSD := engine.Oracle.NativePriceUSD()

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(priceLine{
		Token:         rules.NativeToken(),
		DerivedNative: decimal.NewFromInt(1),
		PriceUSD:      nativeUSD,
	}); err != nil {
		return err
	}
	for _, address := range addresses {
		derived := engine.Resolver.FindNativePerToken(ctx, address)
		if err := enc.Encode(priceLine{
			Token:         address,
			DerivedNative: derived,
			PriceUSD:      derived.Mul(nativeUSD),
		}); err != nil {
			return err
		}
	}
	return nil
}
