package aggregate

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"priceScope/internal/model"
)

// Accumulator holds aggregate values for a pair window.
type Accumulator struct {
	ChainID            uint64
	PairAddress        string
	WindowStart        uint64
	WindowEnd          uint64
	SwapCount          uint64
	MintCount          uint64
	BurnCount          uint64
	Volume0            decimal.Decimal
	Volume1            decimal.Decimal
	VolumeUSD          decimal.Decimal
	UntrackedVolumeUSD decimal.Decimal
	Reserve0           decimal.Decimal
	Reserve1           decimal.Decimal
	ReserveUSD         decimal.Decimal
	TrackedReserveUSD  decimal.Decimal
	NativePriceUSD     decimal.Decimal
	LastBlock          uint64
	LastTS             uint64
	FirstBlock         uint64
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:     record.ChainID,
		PairAddress: record.Address,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		LastBlock:   record.BlockNumber,
		LastTS:      record.Timestamp,
		FirstBlock:  record.BlockNumber,
	}
}

// accumulatorFromMetrics reopens a persisted window row so later events in
// the same window keep adding to it.
func accumulatorFromMetrics(m model.PairWindowMetrics) *Accumulator {
	return &Accumulator{
		ChainID:            m.ChainID,
		PairAddress:        pairKey(m.PairAddress),
		WindowStart:        uint64(m.WindowStart.Unix()),
		WindowEnd:          uint64(m.WindowEnd.Unix()),
		SwapCount:          m.SwapCount,
		MintCount:          m.MintCount,
		BurnCount:          m.BurnCount,
		Volume0:            m.Volume0,
		Volume1:            m.Volume1,
		VolumeUSD:          m.VolumeUSD,
		UntrackedVolumeUSD: m.UntrackedVolumeUSD,
		Reserve0:           m.Reserve0,
		Reserve1:           m.Reserve1,
		ReserveUSD:         m.ReserveUSD,
		TrackedReserveUSD:  m.TrackedReserveUSD,
		NativePriceUSD:     m.NativePriceUSD,
	}
}

// Touch advances the block and timestamp bounds.
func (a *Accumulator) Touch(record model.TypedEventRecord) {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
		a.LastBlock = record.BlockNumber
	}
	if a.FirstBlock == 0 || record.BlockNumber < a.FirstBlock {
		a.FirstBlock = record.BlockNumber
	}
}

func (a *Accumulator) AddSwap(amount0, amount1, trackedUSD, untrackedUSD decimal.Decimal) {
	a.Volume0 = a.Volume0.Add(amount0)
	a.Volume1 = a.Volume1.Add(amount1)
	a.VolumeUSD = a.VolumeUSD.Add(trackedUSD)
	a.UntrackedVolumeUSD = a.UntrackedVolumeUSD.Add(untrackedUSD)
	a.SwapCount++
}

// Observe records the pair state at the latest event of the window.
func (a *Accumulator) Observe(pair model.Pair, nativePriceUSD decimal.Decimal) {
	a.Reserve0 = pair.Reserve0
	a.Reserve1 = pair.Reserve1
	a.ReserveUSD = pair.ReserveUSD
	a.TrackedReserveUSD = pair.TrackedReserveNative.Mul(nativePriceUSD)
	a.NativePriceUSD = nativePriceUSD
}

func (a *Accumulator) Metrics(windowSeconds uint64) model.PairWindowMetrics {
	return model.PairWindowMetrics{
		ChainID:            a.ChainID,
		PairAddress:        a.PairAddress,
		WindowSizeSecs:     int64(windowSeconds),
		WindowStart:        time.Unix(int64(a.WindowStart), 0).UTC(),
		WindowEnd:          time.Unix(int64(a.WindowEnd), 0).UTC(),
		SwapCount:          a.SwapCount,
		MintCount:          a.MintCount,
		BurnCount:          a.BurnCount,
		Volume0:            a.Volume0,
		Volume1:            a.Volume1,
		VolumeUSD:          a.VolumeUSD,
		UntrackedVolumeUSD: a.UntrackedVolumeUSD,
		Reserve0:           a.Reserve0,
		Reserve1:           a.Reserve1,
		ReserveUSD:         a.ReserveUSD,
		TrackedReserveUSD:  a.TrackedReserveUSD,
		NativePriceUSD:     a.NativePriceUSD,
	}
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

// tokenAmount converts a raw integer amount into token units.
func tokenAmount(raw string, decimals uint8) (decimal.Decimal, error) {
	parsed, err := parseBigInt(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(parsed, -int32(decimals)), nil
}
