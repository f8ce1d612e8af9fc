package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"priceScope/internal/model"
)

func TestGetPairOrderIndependent(t *testing.T) {
	store := New()
	store.PutPair(model.Pair{Address: "0xpair", Token0: "0xaaa", Token1: "0xbbb"})

	for _, args := range [][2]string{{"0xaaa", "0xbbb"}, {"0xbbb", "0xaaa"}} {
		got, err := store.GetPair(context.Background(), args[0], args[1])
		if err != nil {
			t.Fatalf("get pair: %v", err)
		}
		if got != "0xpair" {
			t.Fatalf("pair mismatch for %v: %s", args, got)
		}
	}

	got, _ := store.GetPair(context.Background(), "0xaaa", "0xccc")
	if got != model.ZeroAddress {
		t.Fatalf("expected zero address, got %s", got)
	}
	got, _ = store.GetPair(context.Background(), "0xaaa", "0xaaa")
	if got != model.ZeroAddress {
		t.Fatalf("expected zero address for same token, got %s", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	store := New()
	store.PutToken(model.Token{Address: "0xaaa", DerivedNative: decimal.NewFromInt(2)})

	snap := store.Snapshot()
	store.PutToken(model.Token{Address: "0xaaa", DerivedNative: decimal.NewFromInt(3)})

	tok, ok := snap.LoadToken("0xaaa")
	if !ok {
		t.Fatalf("token missing from snapshot")
	}
	if !tok.DerivedNative.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("snapshot observed later write: %s", tok.DerivedNative)
	}
}

func TestAddProvider(t *testing.T) {
	store := New()
	if !store.AddProvider("0xpair", "0x1") {
		t.Fatalf("first provider should be new")
	}
	if store.AddProvider("0xpair", "0x1") {
		t.Fatalf("repeat provider should not be new")
	}
	store.AddProvider("0xpair", "0x0")
	got := store.Providers("0xpair")
	if len(got) != 2 || got[0] != "0x0" || got[1] != "0x1" {
		t.Fatalf("providers mismatch: %v", got)
	}
}
