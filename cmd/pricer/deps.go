package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"priceScope/internal/chain"
	"priceScope/internal/config"
	"priceScope/internal/dex"
	"priceScope/internal/model"
	"priceScope/internal/pricing"
	"priceScope/internal/tokens"
)

// onchain holds the RPC-backed collaborators. Fields are nil when no RPC URL is configured.
type onchain struct {
	client *chain.Client
	redis  *redis.Client
	lookup *dex.FactoryPairLookup
	meta   *dex.MetaResolver
}

func dialOnchain(ctx context.Context, chainCfg config.Chain, pricingCfg config.Pricing, static *tokens.Table, logger *zap.Logger) (*onchain, error) {
	deps := &onchain{}
	if chainCfg.RPCURL == "" {
		return deps, nil
	}

	client, err := chain.NewClient(ctx, chainCfg.RPCURL, chain.Options{
		RateLimit:       chainCfg.RateLimit,
		Burst:           chainCfg.Burst,
		BreakerFailures: chainCfg.BreakerFailures,
		BreakerTimeout:  chainCfg.BreakerTimeout,
		MaxRetries:      chainCfg.MaxRetries,
		RetryBackoff:    chainCfg.RetryBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	deps.client = client

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	logger.Info("rpc connected", zap.String("chain_id", chainID.String()))

	deps.meta = dex.NewMetaResolver(client, static, logger)

	if pricingCfg.Factory == "" {
		return deps, nil
	}

	var shared dex.PairCache
	if chainCfg.RedisAddr != "" {
		deps.redis = redis.NewClient(&redis.Options{Addr: chainCfg.RedisAddr})
		if err := deps.redis.Ping(ctx).Err(); err != nil {
			deps.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		shared = dex.NewRedisPairCache(deps.redis, "")
	}

	lookup, err := dex.NewFactoryPairLookup(client, pricingCfg.Factory, shared, chainCfg.PairCacheSize, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.lookup = lookup
	return deps, nil
}

func (o *onchain) Close() {
	if o.redis != nil {
		o.redis.Close()
	}
	if o.client != nil {
		o.client.Close()
	}
}

// pairLookup prefers the factory and falls back to the store's pair index.
func (o *onchain) pairLookup(fallback pricing.PairLookup) pricing.PairLookup {
	if o.lookup != nil {
		return o.lookup
	}
	return fallback
}

// staticMeta serves metadata without RPC: static definitions, else 18 decimals.
type staticMeta struct {
	table *tokens.Table
}

func (s staticMeta) TokenMeta(_ context.Context, address string) (model.TokenMeta, error) {
	if def, ok := s.table.FromAddress(address); ok {
		return def.Meta(), nil
	}
	return model.TokenMeta{Address: address, Decimals: 18}, nil
}
