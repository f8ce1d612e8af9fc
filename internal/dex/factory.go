package dex

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"priceScope/internal/model"
)

const defaultPairCacheSize = 4096

// PairCache is a shared cache of resolved pair addresses.
type PairCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, pair string) error
}

// FactoryPairLookup resolves pairs with the factory's getPair view.
// Non-zero answers never change once a pair is deployed, so they are cached
// in process and optionally in a shared PairCache. Zero answers are not cached.
type FactoryPairLookup struct {
	caller  ContractCaller
	factory common.Address
	local   *lru.Cache
	shared  PairCache
	logger  *zap.Logger
}

// NewFactoryPairLookup builds a lookup against factory. shared may be nil.
func NewFactoryPairLookup(caller ContractCaller, factory string, shared PairCache, cacheSize int, logger *zap.Logger) (*FactoryPairLookup, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if !common.IsHexAddress(factory) {
		return nil, fmt.Errorf("invalid factory address: %s", factory)
	}
	if cacheSize <= 0 {
		cacheSize = defaultPairCacheSize
	}
	local, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("pair cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactoryPairLookup{
		caller:  caller,
		factory: common.HexToAddress(factory),
		local:   local,
		shared:  shared,
		logger:  logger,
	}, nil
}

// GetPair returns the lower-case pair address or model.ZeroAddress.
func (f *FactoryPairLookup) GetPair(ctx context.Context, tokenA, tokenB string) (string, error) {
	if !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		return "", fmt.Errorf("invalid token pair %s/%s", tokenA, tokenB)
	}
	key := f.cacheKey(tokenA, tokenB)

	if cached, ok := f.local.Get(key); ok {
		return cached.(string), nil
	}
	if f.shared != nil {
		pair, ok, err := f.shared.Get(ctx, key)
		if err != nil {
			f.logger.Debug("shared pair cache get failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			f.local.Add(key, pair)
			return pair, nil
		}
	}

	factoryABI, err := FactoryABI()
	if err != nil {
		return "", fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := callMethod(ctx, f.caller, f.factory, factoryABI, "getPair", common.HexToAddress(tokenA), common.HexToAddress(tokenB))
	if err != nil {
		return "", err
	}
	addr, err := asAddress(values[0])
	if err != nil {
		return "", fmt.Errorf("getPair: %w", err)
	}

	pair := strings.ToLower(addr.Hex())
	if model.IsZeroAddress(pair) {
		return model.ZeroAddress, nil
	}

	f.local.Add(key, pair)
	if f.shared != nil {
		if err := f.shared.Set(ctx, key, pair); err != nil {
			f.logger.Debug("shared pair cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return pair, nil
}

func (f *FactoryPairLookup) cacheKey(tokenA, tokenB string) string {
	a := strings.ToLower(common.HexToAddress(tokenA).Hex())
	b := strings.ToLower(common.HexToAddress(tokenB).Hex())
	if b < a {
		a, b = b, a
	}
	return strings.ToLower(f.factory.Hex()) + ":" + a + ":" + b
}
