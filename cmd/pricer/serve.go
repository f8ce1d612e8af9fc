package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"priceScope/internal/config"
	"priceScope/internal/pricing"
	"priceScope/internal/server"
	"priceScope/internal/storage/postgres"
	"priceScope/internal/tokens"
)

func runServe(cmd *cobra.Command, _ []string) error {
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

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	deps, err := dialOnchain(ctx, cfg.Chain, cfg.Pricing, static, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	holder := server.NewHolder(nil, store.LoadSnapshot, logger)
	if err := holder.Reload(ctx); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	go holder.Run(ctx, cfg.RefreshInterval)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := server.Options{
		Source:   holder,
		Rules:    rules,
		Metrics:  pricing.NewMetrics(reg),
		Registry: reg,
		Logger:   logger,
	}
	if deps.lookup != nil {
		opts.Lookup = deps.lookup
	}

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
	)

	return server.New(opts).ListenAndServe(ctx, cfg.Listen)
}
