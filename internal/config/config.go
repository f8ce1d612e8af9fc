package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PRICER_PG_DSN.
const EnvPrefix = "PRICER"

// Chain holds RPC and cache settings for on-chain lookups.
type Chain struct {
	RPCURL          string
	RateLimit       float64
	Burst           int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RedisAddr       string
	PairCacheSize   int
}

// newViper merges config file, environment variables, and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("rpc-rate-limit", 20.0)
	v.SetDefault("rpc-burst", 5)
	v.SetDefault("rpc-breaker-failures", 5)
	v.SetDefault("rpc-breaker-timeout", 30*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("pair-cache-size", 4096)
	setPricingDefaults(v)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadChain(v *viper.Viper) Chain {
	return Chain{
		RPCURL:          v.GetString("rpc"),
		RateLimit:       v.GetFloat64("rpc-rate-limit"),
		Burst:           v.GetInt("rpc-burst"),
		BreakerFailures: v.GetUint32("rpc-breaker-failures"),
		BreakerTimeout:  v.GetDuration("rpc-breaker-timeout"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		RedisAddr:       v.GetString("redis-addr"),
		PairCacheSize:   v.GetInt("pair-cache-size"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
