package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"priceScope/internal/model"
)

// TokenPriceResolver derives a token's price in native units from its most
// liquid pairing with a whitelisted anchor.
type TokenPriceResolver struct {
	store   Store
	lookup  PairLookup
	rules   *Rules
	metrics *Metrics
	logger  *zap.Logger
}

func NewTokenPriceResolver(store Store, lookup PairLookup, rules *Rules, metrics *Metrics, logger *zap.Logger) *TokenPriceResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &TokenPriceResolver{
		store:   store,
		lookup:  lookup,
		rules:   rules,
		metrics: metrics,
		logger:  logger,
	}
}

// FindNativePerToken returns the native-denominated price of token, or zero
// when no whitelisted pairing holds more than the minimum liquidity.
//
// Anchors are scanned in whitelist order and a candidate replaces the
// incumbent only when its ReserveNative is strictly greater, so the earliest
// anchor wins exact ties.
func (r *TokenPriceResolver) FindNativePerToken(ctx context.Context, token string) decimal.Decimal {
	if token == r.rules.nativeToken {
		return decimal.NewFromInt(1)
	}

	price := decimal.Zero
	bestReserve := r.rules.minLiquidityNative
	for _, anchor := range r.rules.whitelist {
		pairAddress, err := r.lookup.GetPair(ctx, token, anchor)
		if err != nil {
			r.metrics.LookupErrors.Inc()
			r.logger.Warn("pair lookup failed", zap.String("token", token), zap.String("anchor", anchor), zap.Error(err))
			continue
		}
		if model.IsZeroAddress(pairAddress) {
			continue
		}

		pair, ok := r.store.LoadPair(pairAddress)
		if !ok {
			r.metrics.MissingRecords.WithLabelValues("pair").Inc()
			r.logger.Debug("looked-up pair not in store", zap.String("pair", pairAddress))
			continue
		}

		var other string
		var ratio decimal.Decimal
		switch pair.Side(token) {
		case model.Side0:
			other, ratio = pair.Token1, pair.Token1Price
		case model.Side1:
			other, ratio = pair.Token0, pair.Token0Price
		default:
			r.metrics.InvariantViolations.Inc()
			r.logger.Error("looked-up pair does not contain token",
				zap.String("token", token),
				zap.String("anchor", anchor),
				zap.String("pair", pair.Address),
				zap.String("token0", pair.Token0),
				zap.String("token1", pair.Token1),
			)
			continue
		}

		if !pair.ReserveNative.GreaterThan(bestReserve) {
			continue
		}
		otherToken, ok := r.store.LoadToken(other)
		if !ok {
			r.metrics.MissingRecords.WithLabelValues("token").Inc()
			r.logger.Warn("anchor token not in store", zap.String("token", other), zap.String("pair", pair.Address))
			continue
		}

		bestReserve = pair.ReserveNative
		price = ratio.Mul(otherToken.DerivedNative)
	}

	return price
}
