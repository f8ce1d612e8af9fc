package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"priceScope/internal/model"
	"priceScope/internal/tokens"
)

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// MetaResolver loads token metadata from chain and falls back to the static
// table when the on-chain calls fail.
type MetaResolver struct {
	caller ContractCaller
	static *tokens.Table
	cache  *TokenMetaCache
	logger *zap.Logger
}

// NewMetaResolver builds a resolver. caller may be nil for static-only operation.
func NewMetaResolver(caller ContractCaller, static *tokens.Table, logger *zap.Logger) *MetaResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaResolver{
		caller: caller,
		static: static,
		cache:  NewTokenMetaCache(),
		logger: logger,
	}
}

// TokenMeta returns metadata for address.
func (r *MetaResolver) TokenMeta(ctx context.Context, address string) (model.TokenMeta, error) {
	if !common.IsHexAddress(address) {
		return model.TokenMeta{}, fmt.Errorf("invalid token address: %s", address)
	}
	token := common.HexToAddress(address)
	if meta, ok := r.cache.Get(token); ok {
		return meta, nil
	}

	var chainErr error
	if r.caller != nil {
		meta, err := FetchTokenMeta(ctx, r.caller, token, r.logger)
		if err == nil {
			r.fillFromStatic(&meta)
			r.cache.Set(token, meta)
			return meta, nil
		}
		chainErr = err
		r.logger.Debug("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
	} else {
		chainErr = fmt.Errorf("no chain client")
	}

	if def, ok := r.static.FromAddress(address); ok {
		meta := def.Meta()
		r.cache.Set(token, meta)
		return meta, nil
	}
	return model.TokenMeta{}, fmt.Errorf("token %s metadata: %w", token.Hex(), chainErr)
}

// fillFromStatic fills symbol/name that the token contract did not return.
func (r *MetaResolver) fillFromStatic(meta *model.TokenMeta) {
	if meta.Symbol != "" && meta.Name != "" {
		return
	}
	def, ok := r.static.FromAddress(meta.Address)
	if !ok {
		return
	}
	if meta.Symbol == "" {
		meta.Symbol = def.Symbol
	}
	if meta.Name == "" {
		meta.Name = def.Name
	}
}

// FetchTokenMeta loads token metadata via ERC20 calls. Decimals are required;
// symbol and name try the string ABI then the bytes32 ABI.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: strings.ToLower(token.Hex()), Source: model.MetaSourceChain}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}

	stringABI, err := ERC20StringABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := ERC20Bytes32ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		return callMethod(ctx, caller, token, parsed, method)
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func callMethod(ctx context.Context, caller ContractCaller, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
