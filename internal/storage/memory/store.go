package memory

import (
	"context"
	"sort"
	"sync"

	"priceScope/internal/model"
)

type pairKey struct {
	a string
	b string
}

func newPairKey(tokenA, tokenB string) pairKey {
	if tokenB < tokenA {
		tokenA, tokenB = tokenB, tokenA
	}
	return pairKey{a: tokenA, b: tokenB}
}

// Store is an in-memory pair/token/bundle store safe for concurrent use.
// Records are stored by value so readers never observe a partial update.
type Store struct {
	mu        sync.RWMutex
	tokens    map[string]model.Token
	pairs     map[string]model.Pair
	bundles   map[string]model.Bundle
	pairIndex map[pairKey]string
	providers map[string]map[string]struct{}
}

func New() *Store {
	return &Store{
		tokens:    make(map[string]model.Token),
		pairs:     make(map[string]model.Pair),
		bundles:   make(map[string]model.Bundle),
		pairIndex: make(map[pairKey]string),
		providers: make(map[string]map[string]struct{}),
	}
}

func (s *Store) LoadToken(address string) (model.Token, bool) {
	s.mu.RLock()
	tok, ok := s.tokens[address]
	s.mu.RUnlock()
	return tok, ok
}

func (s *Store) LoadPair(address string) (model.Pair, bool) {
	s.mu.RLock()
	pair, ok := s.pairs[address]
	s.mu.RUnlock()
	return pair, ok
}

func (s *Store) LoadBundle(id string) (model.Bundle, bool) {
	s.mu.RLock()
	bundle, ok := s.bundles[id]
	s.mu.RUnlock()
	return bundle, ok
}

func (s *Store) PutToken(token model.Token) {
	s.mu.Lock()
	s.tokens[token.Address] = token
	s.mu.Unlock()
}

// PutPair stores the pair and indexes it by its token pair.
func (s *Store) PutPair(pair model.Pair) {
	s.mu.Lock()
	s.pairs[pair.Address] = pair
	if pair.Token0 != "" && pair.Token1 != "" {
		s.pairIndex[newPairKey(pair.Token0, pair.Token1)] = pair.Address
	}
	s.mu.Unlock()
}

func (s *Store) PutBundle(bundle model.Bundle) {
	s.mu.Lock()
	s.bundles[bundle.ID] = bundle
	s.mu.Unlock()
}

// GetPair resolves the pair for two tokens regardless of argument order.
func (s *Store) GetPair(_ context.Context, tokenA, tokenB string) (string, error) {
	if tokenA == tokenB {
		return model.ZeroAddress, nil
	}
	s.mu.RLock()
	addr, ok := s.pairIndex[newPairKey(tokenA, tokenB)]
	s.mu.RUnlock()
	if !ok {
		return model.ZeroAddress, nil
	}
	return addr, nil
}

// AddProvider records provider for pair and reports whether it was new.
func (s *Store) AddProvider(pair, provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.providers[pair]
	if set == nil {
		set = make(map[string]struct{})
		s.providers[pair] = set
	}
	if _, ok := set[provider]; ok {
		return false
	}
	set[provider] = struct{}{}
	return true
}

// Providers returns the known liquidity providers of pair, sorted.
func (s *Store) Providers(pair string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.providers[pair]))
	for provider := range s.providers[pair] {
		out = append(out, provider)
	}
	sort.Strings(out)
	return out
}

// Tokens returns all tokens sorted by address.
func (s *Store) Tokens() []model.Token {
	s.mu.RLock()
	out := make([]model.Token, 0, len(s.tokens))
	for _, tok := range s.tokens {
		out = append(out, tok)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Pairs returns all pairs sorted by address.
func (s *Store) Pairs() []model.Pair {
	s.mu.RLock()
	out := make([]model.Pair, 0, len(s.pairs))
	for _, pair := range s.pairs {
		out = append(out, pair)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Snapshot returns an independent copy for a consistent read view.
func (s *Store) Snapshot() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := New()
	for k, v := range s.tokens {
		out.tokens[k] = v
	}
	for k, v := range s.pairs {
		out.pairs[k] = v
	}
	for k, v := range s.bundles {
		out.bundles[k] = v
	}
	for k, v := range s.pairIndex {
		out.pairIndex[k] = v
	}
	for pair, set := range s.providers {
		copied := make(map[string]struct{}, len(set))
		for provider := range set {
			copied[provider] = struct{}{}
		}
		out.providers[pair] = copied
	}
	return out
}
