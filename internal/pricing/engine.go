package pricing

import "go.uber.org/zap"

// Engine bundles the three pricing components over one store snapshot.
//
// The engine never mutates the store. Callers that persist its outputs must
// run "read prices, compute, persist" per event in arrival order; the engine
// does not enforce that ordering.
type Engine struct {
	Oracle   *NativePriceOracle
	Resolver *TokenPriceResolver
	Tracker  *VolumeLiquidityTracker
}

func NewEngine(store Store, lookup PairLookup, rules *Rules, metrics *Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		Oracle:   NewNativePriceOracle(store, rules),
		Resolver: NewTokenPriceResolver(store, lookup, rules, metrics, logger),
		Tracker:  NewVolumeLiquidityTracker(rules, StorePrices{Store: store}),
	}
}
