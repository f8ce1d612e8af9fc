package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the HTTP API and the price command.
type ServeConfig struct {
	Listen          string
	PGDSN           string
	RefreshInterval time.Duration
	LogLevel        string
	Chain           Chain
	Pricing         Pricing
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"listen":           ":8080",
		"refresh-interval": 30 * time.Second,
	})
	if err != nil {
		return ServeConfig{}, err
	}

	pricingCfg, err := loadPricing(v)
	if err != nil {
		return ServeConfig{}, err
	}

	return ServeConfig{
		Listen:          v.GetString("listen"),
		PGDSN:           v.GetString("pg-dsn"),
		RefreshInterval: v.GetDuration("refresh-interval"),
		LogLevel:        v.GetString("log-level"),
		Chain:           loadChain(v),
		Pricing:         pricingCfg,
	}, nil
}
