package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// AggregateConfig holds configuration for event replay.
type AggregateConfig struct {
	Input         string
	Window        string
	PGDSN         string
	Out           string
	BatchSize     int
	RecomputeFrom string
	LogLevel      string
	Chain         Chain
	Pricing       Pricing
}

// LoadAggregate merges config file, environment variables, and flags into AggregateConfig.
func LoadAggregate(cfgFile string, flags *pflag.FlagSet) (AggregateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size": 1000,
		"window":     "5m",
		"out":        "./data/aggregate.jsonl",
	})
	if err != nil {
		return AggregateConfig{}, err
	}

	pricingCfg, err := loadPricing(v)
	if err != nil {
		return AggregateConfig{}, err
	}

	return AggregateConfig{
		Input:         v.GetString("in"),
		Window:        v.GetString("window"),
		PGDSN:         v.GetString("pg-dsn"),
		Out:           v.GetString("out"),
		BatchSize:     v.GetInt("batch-size"),
		RecomputeFrom: v.GetString("recompute-from"),
		LogLevel:      v.GetString("log-level"),
		Chain:         loadChain(v),
		Pricing:       pricingCfg,
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

// ParseWindow parses a window like "5m" or "3600" into whole seconds.
func ParseWindow(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}
	dur, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid window: %w", err)
	}
	if dur < time.Second || dur%time.Second != 0 {
		return 0, fmt.Errorf("window must be a whole number of seconds: %s", input)
	}
	return uint64(dur / time.Second), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
