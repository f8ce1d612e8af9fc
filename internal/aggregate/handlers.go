package aggregate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"priceScope/internal/model"
)

const defaultDecimals = 18

var two = decimal.NewFromInt(2)

func (a *Aggregator) handlePairCreated(ctx context.Context, record model.TypedEventRecord) error {
	var data model.PairCreatedEventData
	if err := json.Unmarshal(record.Decoded, &data); err != nil {
		return fmt.Errorf("decode pair created: %w", err)
	}
	pairAddress, err := model.NormalizeAddress(data.Pair)
	if err != nil {
		return err
	}
	token0, err := model.NormalizeAddress(data.Token0)
	if err != nil {
		return err
	}
	token1, err := model.NormalizeAddress(data.Token1)
	if err != nil {
		return err
	}

	if _, ok := a.state.LoadPair(pairAddress); ok {
		return nil
	}

	// Both tokens must resolve before anything is stored.
	tok0, err := a.ensureToken(ctx, token0)
	if err != nil {
		return fmt.Errorf("token0 %s: %w", token0, err)
	}
	tok1, err := a.ensureToken(ctx, token1)
	if err != nil {
		return fmt.Errorf("token1 %s: %w", token1, err)
	}
	a.state.PutToken(tok0)
	a.state.PutToken(tok1)
	a.markToken(token0)
	a.markToken(token1)

	a.state.PutPair(model.Pair{
		Address:            pairAddress,
		Token0:             token0,
		Token1:             token1,
		CreatedAtBlock:     record.BlockNumber,
		CreatedAtTimestamp: record.Timestamp,
	})
	a.markPair(pairAddress)

	a.logger.Debug("pair created", zap.String("pair", pairAddress), zap.String("token0", token0), zap.String("token1", token1))
	return nil
}

func (a *Aggregator) ensureToken(ctx context.Context, address string) (model.Token, error) {
	if token, ok := a.state.LoadToken(address); ok {
		return token, nil
	}
	if a.meta == nil {
		return model.Token{Address: address, Decimals: defaultDecimals}, nil
	}
	meta, err := a.meta.TokenMeta(ctx, address)
	if err != nil {
		return model.Token{}, err
	}
	return model.Token{
		Address:  address,
		Symbol:   meta.Symbol,
		Name:     meta.Name,
		Decimals: meta.Decimals,
	}, nil
}

// loadPair returns the pair addressed by record with both of its tokens.
func (a *Aggregator) loadPair(record model.TypedEventRecord) (model.Pair, model.Token, model.Token, error) {
	pair, ok := a.state.LoadPair(pairKey(record.Address))
	if !ok {
		return model.Pair{}, model.Token{}, model.Token{}, errUnknownPair
	}
	token0, ok := a.state.LoadToken(pair.Token0)
	if !ok {
		return model.Pair{}, model.Token{}, model.Token{}, fmt.Errorf("missing token0 %s", pair.Token0)
	}
	token1, ok := a.state.LoadToken(pair.Token1)
	if !ok {
		return model.Pair{}, model.Token{}, model.Token{}, fmt.Errorf("missing token1 %s", pair.Token1)
	}
	return pair, token0, token1, nil
}

func (a *Aggregator) handleSync(ctx context.Context, record model.TypedEventRecord) error {
	pair, token0, token1, err := a.loadPair(record)
	if err != nil {
		return err
	}

	var data model.SyncEventData
	if err := json.Unmarshal(record.Decoded, &data); err != nil {
		return fmt.Errorf("decode sync: %w", err)
	}
	reserve0, err := tokenAmount(data.Reserve0, token0.Decimals)
	if err != nil {
		return err
	}
	reserve1, err := tokenAmount(data.Reserve1, token1.Decimals)
	if err != nil {
		return err
	}

	token0.TotalLiquidity = token0.TotalLiquidity.Sub(pair.Reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Sub(pair.Reserve1)

	pair.SetReserves(reserve0, reserve1)
	a.state.PutPair(pair)

	nativePrice := a.engine.Oracle.NativePriceUSD()
	a.state.PutBundle(model.Bundle{ID: model.BundleID, NativePriceUSD: nativePrice})
	a.bundleDirty = true

	// Both prices are resolved against the pre-sync token records.
	derived0 := a.engine.Resolver.FindNativePerToken(ctx, token0.Address)
	derived1 := a.engine.Resolver.FindNativePerToken(ctx, token1.Address)
	token0.DerivedNative = derived0
	token1.DerivedNative = derived1
	a.state.PutToken(token0)
	a.state.PutToken(token1)

	trackedLiquidityNative := decimal.Zero
	if !nativePrice.IsZero() {
		trackedUSD := a.engine.Tracker.TrackedLiquidityUSD(reserve0, token0.Address, reserve1, token1.Address)
		trackedLiquidityNative = model.Quo(trackedUSD, nativePrice)
	}

	pair.TrackedReserveNative = trackedLiquidityNative
	pair.ReserveNative = reserve0.Mul(derived0).Add(reserve1.Mul(derived1))
	pair.ReserveUSD = pair.ReserveNative.Mul(nativePrice)
	a.state.PutPair(pair)

	token0.TotalLiquidity = token0.TotalLiquidity.Add(reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Add(reserve1)
	a.state.PutToken(token0)
	a.state.PutToken(token1)

	a.markPair(pair.Address)
	a.markToken(token0.Address)
	a.markToken(token1.Address)

	a.window(record).Observe(pair, nativePrice)
	return nil
}

func (a *Aggregator) handleSwap(record model.TypedEventRecord) error {
	pair, token0, token1, err := a.loadPair(record)
	if err != nil {
		return err
	}

	var data model.SwapEventData
	if err := json.Unmarshal(record.Decoded, &data); err != nil {
		return fmt.Errorf("decode swap: %w", err)
	}
	amount0, err := sumAmounts(token0.Decimals, data.Amount0In, data.Amount0Out)
	if err != nil {
		return err
	}
	amount1, err := sumAmounts(token1.Decimals, data.Amount1In, data.Amount1Out)
	if err != nil {
		return err
	}

	nativePrice := a.nativePrice()
	derivedNative := model.Quo(token1.DerivedNative.Mul(amount1).Add(token0.DerivedNative.Mul(amount0)), two)
	untrackedUSD := derivedNative.Mul(nativePrice)
	trackedUSD := a.engine.Tracker.TrackedVolumeUSD(amount0, token0.Address, amount1, token1.Address, pair)

	token0.TradeVolume = token0.TradeVolume.Add(amount0)
	token0.TradeVolumeUSD = token0.TradeVolumeUSD.Add(trackedUSD)
	token0.UntrackedVolumeUSD = token0.UntrackedVolumeUSD.Add(untrackedUSD)
	token0.TxCount++

	token1.TradeVolume = token1.TradeVolume.Add(amount1)
	token1.TradeVolumeUSD = token1.TradeVolumeUSD.Add(trackedUSD)
	token1.UntrackedVolumeUSD = token1.UntrackedVolumeUSD.Add(untrackedUSD)
	token1.TxCount++

	pair.VolumeToken0 = pair.VolumeToken0.Add(amount0)
	pair.VolumeToken1 = pair.VolumeToken1.Add(amount1)
	pair.VolumeUSD = pair.VolumeUSD.Add(trackedUSD)
	pair.UntrackedVolumeUSD = pair.UntrackedVolumeUSD.Add(untrackedUSD)
	pair.TxCount++

	a.state.PutToken(token0)
	a.state.PutToken(token1)
	a.state.PutPair(pair)
	a.markToken(token0.Address)
	a.markToken(token1.Address)
	a.markPair(pair.Address)

	a.metrics.TrackedVolumeUSD.Add(trackedUSD.InexactFloat64())

	acc := a.window(record)
	acc.AddSwap(amount0, amount1, trackedUSD, untrackedUSD)
	acc.Observe(pair, nativePrice)
	return nil
}

func (a *Aggregator) handleMint(record model.TypedEventRecord) error {
	pair, token0, token1, err := a.loadPair(record)
	if err != nil {
		return err
	}

	var data model.MintEventData
	if err := json.Unmarshal(record.Decoded, &data); err != nil {
		return fmt.Errorf("decode mint: %w", err)
	}

	// Sender is the router for most mints, and the first mint locks
	// MINIMUM_LIQUIDITY at the zero address, so only a real LP token
	// recipient counts as a provider.
	if !model.IsZeroAddress(data.Provider) {
		provider, err := model.NormalizeAddress(data.Provider)
		if err != nil {
			return err
		}
		if provider != pair.Address && a.state.AddProvider(pair.Address, provider) {
			pair.LiquidityProviderCount++
			a.dirtyProviders[pair.Address] = struct{}{}
		}
	}

	a.countTx(&pair, &token0, &token1)

	acc := a.window(record)
	acc.MintCount++
	acc.Observe(pair, a.nativePrice())
	return nil
}

func (a *Aggregator) handleBurn(record model.TypedEventRecord) error {
	pair, token0, token1, err := a.loadPair(record)
	if err != nil {
		return err
	}

	var data model.BurnEventData
	if err := json.Unmarshal(record.Decoded, &data); err != nil {
		return fmt.Errorf("decode burn: %w", err)
	}

	a.countTx(&pair, &token0, &token1)

	acc := a.window(record)
	acc.BurnCount++
	acc.Observe(pair, a.nativePrice())
	return nil
}

func (a *Aggregator) countTx(pair *model.Pair, token0, token1 *model.Token) {
	pair.TxCount++
	token0.TxCount++
	token1.TxCount++

	a.state.PutPair(*pair)
	a.state.PutToken(*token0)
	a.state.PutToken(*token1)
	a.markPair(pair.Address)
	a.markToken(token0.Address)
	a.markToken(token1.Address)
}

func (a *Aggregator) nativePrice() decimal.Decimal {
	if bundle, ok := a.state.LoadBundle(model.BundleID); ok {
		return bundle.NativePriceUSD
	}
	return decimal.Zero
}

func sumAmounts(decimals uint8, raw ...string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, value := range raw {
		amount, err := tokenAmount(value, decimals)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, nil
}
