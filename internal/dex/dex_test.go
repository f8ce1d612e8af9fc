package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redismock/v8"
	"go.uber.org/zap"

	"priceScope/internal/model"
	"priceScope/internal/tokens"
)

var (
	factoryAddr = "0x6000000000000000000000000000000000000006"
	tokenA      = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenB      = common.HexToAddress("0x2000000000000000000000000000000000000002")
	tokenC      = common.HexToAddress("0x3000000000000000000000000000000000000003")
	pairAB      = common.HexToAddress("0xABCDEF0000000000000000000000000000000001")
)

type fakeCaller struct {
	calls   int
	respond func(method string, parsed abi.ABI, args []interface{}) ([]byte, error)
	parsed  abi.ABI
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	method, err := f.parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	return f.respond(method.Name, f.parsed, args)
}

func newFactoryCaller(t *testing.T) *fakeCaller {
	t.Helper()
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("factory abi: %v", err)
	}
	return &fakeCaller{
		parsed: parsed,
		respond: func(method string, parsed abi.ABI, args []interface{}) ([]byte, error) {
			a := args[0].(common.Address)
			b := args[1].(common.Address)
			if (a == tokenA && b == tokenB) || (a == tokenB && b == tokenA) {
				return parsed.Methods[method].Outputs.Pack(pairAB)
			}
			return parsed.Methods[method].Outputs.Pack(common.Address{})
		},
	}
}

func TestFactoryPairLookupCachesHits(t *testing.T) {
	caller := newFactoryCaller(t)
	lookup, err := NewFactoryPairLookup(caller, factoryAddr, nil, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	got, err := lookup.GetPair(context.Background(), tokenA.Hex(), tokenB.Hex())
	if err != nil {
		t.Fatalf("get pair: %v", err)
	}
	if got != "0xabcdef0000000000000000000000000000000001" {
		t.Fatalf("pair mismatch: %s", got)
	}

	got, err = lookup.GetPair(context.Background(), tokenB.Hex(), tokenA.Hex())
	if err != nil || got != "0xabcdef0000000000000000000000000000000001" {
		t.Fatalf("reversed lookup mismatch: %s %v", got, err)
	}
	if caller.calls != 1 {
		t.Fatalf("expected one eth_call, got %d", caller.calls)
	}
}

func TestFactoryPairLookupZeroNotCached(t *testing.T) {
	caller := newFactoryCaller(t)
	lookup, err := NewFactoryPairLookup(caller, factoryAddr, nil, 16, nil)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := lookup.GetPair(context.Background(), tokenA.Hex(), tokenC.Hex())
		if err != nil {
			t.Fatalf("get pair: %v", err)
		}
		if got != model.ZeroAddress {
			t.Fatalf("expected zero address, got %s", got)
		}
	}
	if caller.calls != 2 {
		t.Fatalf("zero answers must not be cached, calls=%d", caller.calls)
	}

	if _, err := lookup.GetPair(context.Background(), "bad", tokenA.Hex()); err == nil {
		t.Fatalf("expected error for invalid token")
	}
}

func TestFactoryPairLookupSharedCache(t *testing.T) {
	client, mock := redismock.NewClientMock()
	shared := NewRedisPairCache(client, "")

	caller := newFactoryCaller(t)
	lookup, err := NewFactoryPairLookup(caller, factoryAddr, shared, 16, nil)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	key := lookup.cacheKey(tokenA.Hex(), tokenB.Hex())
	pair := "0xabcdef0000000000000000000000000000000001"

	mock.ExpectGet("pricescope:pair:" + key).RedisNil()
	mock.ExpectSet("pricescope:pair:"+key, pair, 0).SetVal("OK")

	got, err := lookup.GetPair(context.Background(), tokenA.Hex(), tokenB.Hex())
	if err != nil || got != pair {
		t.Fatalf("get pair: %s %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("redis expectations not met: %v", err)
	}

	// a fresh process finds the pair in redis without touching the chain
	warm, err := NewFactoryPairLookup(caller, factoryAddr, shared, 16, nil)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	mock.ExpectGet("pricescope:pair:" + key).SetVal(pair)
	got, err = warm.GetPair(context.Background(), tokenB.Hex(), tokenA.Hex())
	if err != nil || got != pair {
		t.Fatalf("warm get pair: %s %v", got, err)
	}
	if caller.calls != 1 {
		t.Fatalf("expected shared cache hit, calls=%d", caller.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("redis expectations not met: %v", err)
	}
}

func newERC20Caller(t *testing.T, fail bool) *fakeCaller {
	t.Helper()
	parsed, err := ERC20StringABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	return &fakeCaller{
		parsed: parsed,
		respond: func(method string, parsed abi.ABI, _ []interface{}) ([]byte, error) {
			if fail {
				return nil, errors.New("execution reverted")
			}
			outputs := parsed.Methods[method].Outputs
			switch method {
			case "decimals":
				return outputs.Pack(uint8(18))
			case "symbol":
				return outputs.Pack("FOO")
			default:
				return outputs.Pack("Foo Token")
			}
		},
	}
}

func TestMetaResolverChain(t *testing.T) {
	static, _ := tokens.NewTable()
	resolver := NewMetaResolver(newERC20Caller(t, false), static, nil)

	meta, err := resolver.TokenMeta(context.Background(), tokenA.Hex())
	if err != nil {
		t.Fatalf("token meta: %v", err)
	}
	if meta.Decimals != 18 || meta.Symbol != "FOO" || meta.Name != "Foo Token" {
		t.Fatalf("meta mismatch: %+v", meta)
	}
	if meta.Source != model.MetaSourceChain || meta.Address != "0x1000000000000000000000000000000000000001" {
		t.Fatalf("meta source/address mismatch: %+v", meta)
	}
}

func TestMetaResolverStaticFallback(t *testing.T) {
	static, _ := tokens.NewTable()
	resolver := NewMetaResolver(newERC20Caller(t, true), static, nil)

	meta, err := resolver.TokenMeta(context.Background(), "0x33b57dc70014fd7aa6e1ed3080eed2b619632b8e")
	if err != nil {
		t.Fatalf("token meta: %v", err)
	}
	if meta.Decimals != 6 || meta.Symbol != "USDT" || meta.Source != model.MetaSourceStatic {
		t.Fatalf("static meta mismatch: %+v", meta)
	}

	if _, err := resolver.TokenMeta(context.Background(), tokenC.Hex()); err == nil {
		t.Fatalf("expected error for unknown token with failing chain")
	}

	staticOnly := NewMetaResolver(nil, static, nil)
	if _, err := staticOnly.TokenMeta(context.Background(), "0xfa9343c3897324496a05fc75abed6bac29f8a40f"); err != nil {
		t.Fatalf("static-only lookup: %v", err)
	}
}
