package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "pricer",
		Short:        "DEX token pricing and volume tracking",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Replay typed pair events into prices, volumes and window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "", "input typed events JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN; empty writes JSONL to --out")
	aggregateCmd.Flags().String("out", "./data/aggregate.jsonl", "JSONL output when no Postgres DSN is set")
	aggregateCmd.Flags().Int("batch-size", 1000, "window metrics per sink flush")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	addChainFlags(aggregateCmd.Flags())
	addPricingFlags(aggregateCmd.Flags())

	root.AddCommand(aggregateCmd)

	priceCmd := &cobra.Command{
		Use:   "price [token...]",
		Short: "Print the native USD price and optional token prices from the stored snapshot",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	addChainFlags(priceCmd.Flags())
	addPricingFlags(priceCmd.Flags())

	root.AddCommand(priceCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only pricing API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	serveCmd.Flags().Duration("refresh-interval", 30*time.Second, "snapshot reload interval, 0 disables")
	addChainFlags(serveCmd.Flags())
	addPricingFlags(serveCmd.Flags())

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "EVM RPC URL for factory lookups and token metadata")
	flags.Float64("rpc-rate-limit", 20, "eth_call requests per second, 0 disables")
	flags.Int("rpc-burst", 5, "eth_call burst size")
	flags.Int("max-retries", 3, "maximum retry attempts for transient RPC failures")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("redis-addr", "", "optional Redis address for the shared pair cache")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addPricingFlags(flags *pflag.FlagSet) {
	flags.String("factory", "", "pair factory address")
	flags.String("native-token", "", "wrapped native token address")
	flags.StringSlice("whitelist", nil, "ordered anchor token addresses (comma-separated)")
	flags.StringSlice("untracked-pairs", nil, "pairs excluded from tracked volume (comma-separated)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
