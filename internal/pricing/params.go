package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"priceScope/internal/model"
)

// Params are the per-deployment pricing constants.
type Params struct {
	NativeToken        string
	PrimaryStablePair  string
	LegacyStablePair   string
	Whitelist          []string
	UntrackedPairs     []string
	MinLiquidityNative decimal.Decimal
	MinUSDNewPairs     decimal.Decimal
	ThinPoolLPCount    uint64
}

// DefaultParams returns the EOS EVM deployment constants.
func DefaultParams() Params {
	return Params{
		NativeToken:       "0xc00592aa41d32d137dc480d9f6d0df19b860104f", // WEOS
		PrimaryStablePair: "0xc7df4c6e2343162a46c159932298a4b88fb85d96", // USDT(EOS)/WEOS, usdt is token0
		LegacyStablePair:  "0x90212ee7d342d280f519035e693168782215fa73", // USDT(multichain)/WEOS, weos is token1
		Whitelist: []string{
			"0x33b57dc70014fd7aa6e1ed3080eed2b619632b8e", // USDT (EOS)
			"0xfa9343c3897324496a05fc75abed6bac29f8a40f", // USDT (MULTICHAIN)
			"0xc00592aa41d32d137dc480d9f6d0df19b860104f", // WEOS
			"0x765277eebeca2e31912c9946eae1021199b39c61", // USDC
		},
		UntrackedPairs:     nil,
		MinLiquidityNative: decimal.RequireFromString("0.1"),
		MinUSDNewPairs:     decimal.NewFromInt(100),
		ThinPoolLPCount:    5,
	}
}

// AddressSet is an order-independent membership view over addresses.
type AddressSet map[string]struct{}

// NewAddressSet builds a set from addresses.
func NewAddressSet(addresses ...string) AddressSet {
	set := make(AddressSet, len(addresses))
	for _, addr := range addresses {
		set[addr] = struct{}{}
	}
	return set
}

// Contains reports whether addr is a member.
func (s AddressSet) Contains(addr string) bool {
	_, ok := s[addr]
	return ok
}

// Rules is the validated, immutable form of Params shared by the pricing components.
type Rules struct {
	nativeToken        string
	primaryStablePair  string
	legacyStablePair   string
	whitelist          []string
	whitelistSet       AddressSet
	untracked          AddressSet
	minLiquidityNative decimal.Decimal
	minUSDNewPairs     decimal.Decimal
	thinPoolLPCount    uint64
}

// NewRules normalizes every address in p and freezes the result.
func NewRules(p Params) (*Rules, error) {
	native, err := model.NormalizeAddress(p.NativeToken)
	if err != nil {
		return nil, fmt.Errorf("native token: %w", err)
	}
	primary, err := normalizeOptional(p.PrimaryStablePair)
	if err != nil {
		return nil, fmt.Errorf("primary stable pair: %w", err)
	}
	legacy, err := normalizeOptional(p.LegacyStablePair)
	if err != nil {
		return nil, fmt.Errorf("legacy stable pair: %w", err)
	}
	whitelist, err := model.NormalizeAddresses(p.Whitelist)
	if err != nil {
		return nil, fmt.Errorf("whitelist: %w", err)
	}
	whitelist = dedupe(whitelist)
	untracked, err := model.NormalizeAddresses(p.UntrackedPairs)
	if err != nil {
		return nil, fmt.Errorf("untracked pairs: %w", err)
	}
	if p.MinLiquidityNative.IsNegative() {
		return nil, fmt.Errorf("min liquidity must not be negative")
	}
	if p.MinUSDNewPairs.IsNegative() {
		return nil, fmt.Errorf("min usd for new pairs must not be negative")
	}

	return &Rules{
		nativeToken:        native,
		primaryStablePair:  primary,
		legacyStablePair:   legacy,
		whitelist:          whitelist,
		whitelistSet:       NewAddressSet(whitelist...),
		untracked:          NewAddressSet(untracked...),
		minLiquidityNative: p.MinLiquidityNative,
		minUSDNewPairs:     p.MinUSDNewPairs,
		thinPoolLPCount:    p.ThinPoolLPCount,
	}, nil
}

// NativeToken returns the wrapped native token address.
func (r *Rules) NativeToken() string { return r.nativeToken }

// Whitelist returns a copy of the anchor tokens in scan order.
func (r *Rules) Whitelist() []string {
	out := make([]string, len(r.whitelist))
	copy(out, r.whitelist)
	return out
}

// IsWhitelisted reports whether token is a price anchor.
func (r *Rules) IsWhitelisted(token string) bool { return r.whitelistSet.Contains(token) }

// IsUntracked reports whether pair is excluded from volume accounting.
func (r *Rules) IsUntracked(pair string) bool { return r.untracked.Contains(pair) }

func normalizeOptional(addr string) (string, error) {
	if addr == "" {
		return "", nil
	}
	return model.NormalizeAddress(addr)
}

func dedupe(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := addresses[:0]
	for _, addr := range addresses {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
