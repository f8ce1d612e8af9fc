package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"priceScope/internal/aggregate"
	"priceScope/internal/config"
	"priceScope/internal/pricing"
	"priceScope/internal/storage"
	"priceScope/internal/storage/memory"
	"priceScope/internal/storage/postgres"
	"priceScope/internal/tokens"
)

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAggregate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	windowSeconds, err := config.ParseWindow(cfg.Window)
	if err != nil {
		return err
	}
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("parse recompute-from: %w", err)
	}

	rules, err := pricing.NewRules(cfg.Pricing.Params)
	if err != nil {
		return err
	}
	static, err := tokens.NewTable(cfg.Pricing.StaticTokens...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := dialOnchain(ctx, cfg.Chain, cfg.Pricing, static, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	var (
		sink  storage.Sink
		state *memory.Store
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if state, err = store.LoadSnapshot(ctx); err != nil {
			return err
		}
		sink = store
	} else {
		jsonl := storage.NewJsonlSink(cfg.Out)
		if state, err = jsonl.LoadSnapshot(ctx); err != nil {
			return err
		}
		sink = jsonl
	}

	var meta aggregate.TokenMetaSource = staticMeta{table: static}
	if deps.meta != nil {
		meta = deps.meta
	}

	reg := prometheus.NewRegistry()
	engine := pricing.NewEngine(state, deps.pairLookup(state), rules, pricing.NewMetrics(reg), logger)
	agg := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		CursorName:    fmt.Sprintf("aggregator:%d", windowSeconds),
	}, state, engine, sink, meta, aggregate.NewMetrics(reg), logger)

	logger.Info("aggregate start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", recomputeFrom),
		zap.Int("whitelist", len(rules.Whitelist())),
	)

	return agg.Run(ctx, cfg.Input)
}
