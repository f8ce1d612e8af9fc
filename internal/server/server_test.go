package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"priceScope/internal/model"
	"priceScope/internal/pricing"
	"priceScope/internal/storage/memory"
)

const (
	nativeToken = "0x1000000000000000000000000000000000000001"
	usdtToken   = "0x2000000000000000000000000000000000000002"
	fooToken    = "0x4000000000000000000000000000000000000004"
	primaryPair = "0xa00000000000000000000000000000000000000a"
	fooPair     = "0xc00000000000000000000000000000000000000c"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func testSnapshot() *memory.Store {
	store := memory.New()
	store.PutToken(model.Token{Address: nativeToken, Symbol: "WNATIVE", DerivedNative: dec("1")})
	store.PutToken(model.Token{Address: usdtToken, Symbol: "USDT", DerivedNative: dec("0.5")})
	store.PutToken(model.Token{Address: fooToken, Symbol: "FOO"})

	primary := model.Pair{Address: primaryPair, Token0: usdtToken, Token1: nativeToken}
	primary.SetReserves(dec("2000"), dec("1000"))
	primary.ReserveNative = dec("2000")
	store.PutPair(primary)

	foo := model.Pair{Address: fooPair, Token0: fooToken, Token1: nativeToken}
	foo.SetReserves(dec("400"), dec("100"))
	foo.ReserveNative = dec("200")
	store.PutPair(foo)

	store.PutBundle(model.Bundle{ID: model.BundleID, NativePriceUSD: dec("2")})
	return store
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rules, err := pricing.NewRules(pricing.Params{
		NativeToken:        nativeToken,
		PrimaryStablePair:  primaryPair,
		Whitelist:          []string{usdtToken, nativeToken},
		MinLiquidityNative: dec("0.1"),
		MinUSDNewPairs:     dec("100"),
		ThinPoolLPCount:    5,
	})
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	registry := prometheus.NewRegistry()
	return New(Options{
		Source:   testSnapshot(),
		Rules:    rules,
		Metrics:  pricing.NewMetrics(registry),
		Registry: registry,
	})
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec, body
}

func TestNativePriceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec, body := get(t, srv, "/native-price")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body["native_price_usd"] != "2" || body["stored_price_usd"] != "2" {
		t.Fatalf("unexpected body: %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id")
	}
}

func TestTokenPriceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec, body := get(t, srv, "/tokens/"+strings.ToUpper(fooToken[2:])+"/price")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body["token"] != fooToken || body["known"] != true {
		t.Fatalf("unexpected token fields: %v", body)
	}
	if body["derived_native"] != "0.25" || body["price_usd"] != "0.5" {
		t.Fatalf("unexpected prices: %v", body)
	}

	rec, _ = get(t, srv, "/tokens/not-an-address/price")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}
}

func TestPairEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec, body := get(t, srv, "/pairs/"+primaryPair)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body["token0"] != usdtToken || body["token0_price"] != "2" {
		t.Fatalf("unexpected pair: %v", body)
	}

	rec, _ = get(t, srv, "/pairs/0x00000000000000000000000000000000000000ff")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	rec, body := get(t, srv, "/health")
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["pairs"] != float64(2) {
		t.Fatalf("unexpected health: %d %v", rec.Code, body)
	}

	rec, _ = get(t, srv, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected metrics status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pricescope_http_request_duration_seconds") {
		t.Fatalf("request histogram not exported")
	}
}

func TestHolderReload(t *testing.T) {
	next := memory.New()
	next.PutBundle(model.Bundle{ID: model.BundleID, NativePriceUSD: dec("3")})

	calls := 0
	holder := NewHolder(nil, func(context.Context) (*memory.Store, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("db down")
		}
		return next, nil
	}, nil)

	if err := holder.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if holder.Snapshot() != next {
		t.Fatalf("snapshot not swapped")
	}
	if err := holder.Reload(context.Background()); err == nil {
		t.Fatalf("expected reload error")
	}
	if holder.Snapshot() != next {
		t.Fatalf("failed reload replaced snapshot")
	}
}
