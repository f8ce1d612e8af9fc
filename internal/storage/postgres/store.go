package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"priceScope/internal/model"
	"priceScope/internal/storage"
	"priceScope/internal/storage/memory"
)

// Store provides Postgres persistence for entities and window metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func queueTokens(batch *pgx.Batch, tokens []model.Token) {
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO tokens (
				address, symbol, name, decimals, derived_native, total_liquidity,
				trade_volume, trade_volume_usd, untracked_volume_usd, tx_count, updated_at
			) VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8::numeric,$9::numeric,$10,now())
			ON CONFLICT (address)
			DO UPDATE SET
				symbol = EXCLUDED.symbol,
				name = EXCLUDED.name,
				decimals = EXCLUDED.decimals,
				derived_native = EXCLUDED.derived_native,
				total_liquidity = EXCLUDED.total_liquidity,
				trade_volume = EXCLUDED.trade_volume,
				trade_volume_usd = EXCLUDED.trade_volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				tx_count = EXCLUDED.tx_count,
				updated_at = now()
		`,
			token.Address,
			token.Symbol,
			token.Name,
			int16(token.Decimals),
			token.DerivedNative.String(),
			token.TotalLiquidity.String(),
			token.TradeVolume.String(),
			token.TradeVolumeUSD.String(),
			token.UntrackedVolumeUSD.String(),
			int64(token.TxCount),
		)
	}
}

func queuePairs(batch *pgx.Batch, pairs []model.Pair) {
	for _, pair := range pairs {
		batch.Queue(`
			INSERT INTO pairs (
				address, token0, token1, reserve0, reserve1, reserve_native, reserve_usd,
				tracked_reserve_native, token0_price, token1_price, liquidity_provider_count,
				volume_token0, volume_token1, volume_usd, untracked_volume_usd, tx_count,
				created_at_block, created_at_timestamp, updated_at
			) VALUES (
				$1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8::numeric,$9::numeric,$10::numeric,
				$11,$12::numeric,$13::numeric,$14::numeric,$15::numeric,$16,$17,$18,now()
			)
			ON CONFLICT (address)
			DO UPDATE SET
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				reserve_native = EXCLUDED.reserve_native,
				reserve_usd = EXCLUDED.reserve_usd,
				tracked_reserve_native = EXCLUDED.tracked_reserve_native,
				token0_price = EXCLUDED.token0_price,
				token1_price = EXCLUDED.token1_price,
				liquidity_provider_count = EXCLUDED.liquidity_provider_count,
				volume_token0 = EXCLUDED.volume_token0,
				volume_token1 = EXCLUDED.volume_token1,
				volume_usd = EXCLUDED.volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				tx_count = EXCLUDED.tx_count,
				created_at_block = LEAST(pairs.created_at_block, EXCLUDED.created_at_block),
				updated_at = now()
		`,
			pair.Address,
			pair.Token0,
			pair.Token1,
			pair.Reserve0.String(),
			pair.Reserve1.String(),
			pair.ReserveNative.String(),
			pair.ReserveUSD.String(),
			pair.TrackedReserveNative.String(),
			pair.Token0Price.String(),
			pair.Token1Price.String(),
			int64(pair.LiquidityProviderCount),
			pair.VolumeToken0.String(),
			pair.VolumeToken1.String(),
			pair.VolumeUSD.String(),
			pair.UntrackedVolumeUSD.String(),
			int64(pair.TxCount),
			int64(pair.CreatedAtBlock),
			int64(pair.CreatedAtTimestamp),
		)
	}
}

func queueBundle(batch *pgx.Batch, bundle model.Bundle) {
	batch.Queue(`
		INSERT INTO bundles (id, native_price_usd, updated_at)
		VALUES ($1, $2::numeric, now())
		ON CONFLICT (id) DO UPDATE
		SET native_price_usd = EXCLUDED.native_price_usd, updated_at = now()
	`, bundle.ID, bundle.NativePriceUSD.String())
}

func queueProviders(batch *pgx.Batch, pair string, providers []string) {
	for _, provider := range providers {
		batch.Queue(`
			INSERT INTO liquidity_providers (pair_address, provider)
			VALUES ($1, $2)
			ON CONFLICT (pair_address, provider) DO NOTHING
		`, pair, provider)
	}
}

func queueWindows(batch *pgx.Batch, metrics []model.PairWindowMetrics) {
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pair_window_metrics (
				chain_id, pair_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, mint_count, burn_count, volume0, volume1, volume_usd, untracked_volume_usd,
				reserve0, reserve1, reserve_usd, tracked_reserve_usd, native_price_usd, created_at, updated_at
			) VALUES (
				$1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10::numeric,$11::numeric,$12::numeric,
				$13::numeric,$14::numeric,$15::numeric,$16::numeric,$17::numeric,now(),now()
			)
			ON CONFLICT (chain_id, pair_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				mint_count = EXCLUDED.mint_count,
				burn_count = EXCLUDED.burn_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				volume_usd = EXCLUDED.volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				reserve_usd = EXCLUDED.reserve_usd,
				tracked_reserve_usd = EXCLUDED.tracked_reserve_usd,
				native_price_usd = EXCLUDED.native_price_usd,
				updated_at = now()
		`,
			int64(m.ChainID),
			m.PairAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.MintCount),
			int64(m.BurnCount),
			m.Volume0.String(),
			m.Volume1.String(),
			m.VolumeUSD.String(),
			m.UntrackedVolumeUSD.String(),
			m.Reserve0.String(),
			m.Reserve1.String(),
			m.ReserveUSD.String(),
			m.TrackedReserveUSD.String(),
			m.NativePriceUSD.String(),
		)
	}
}

// LoadSnapshot reads all persisted entities into a fresh in-memory store.
func (s *Store) LoadSnapshot(ctx context.Context) (*memory.Store, error) {
	snapshot := memory.New()

	if err := s.loadTokens(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	if err := s.loadPairs(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("load pairs: %w", err)
	}
	if err := s.loadBundle(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	if err := s.loadProviders(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	return snapshot, nil
}

func (s *Store) loadTokens(ctx context.Context, snapshot *memory.Store) error {
	rows, err := s.pool.Query(ctx, `
		SELECT address, symbol, name, decimals, derived_native::text, total_liquidity::text,
			trade_volume::text, trade_volume_usd::text, untracked_volume_usd::text, tx_count
		FROM tokens
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			token    model.Token
			decimals int16
			txCount  int64
			nums     [5]string
		)
		if err := rows.Scan(&token.Address, &token.Symbol, &token.Name, &decimals,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &txCount); err != nil {
			return err
		}
		parsed, err := parseDecimals(nums[:])
		if err != nil {
			return fmt.Errorf("token %s: %w", token.Address, err)
		}
		token.Decimals = uint8(decimals)
		token.DerivedNative = parsed[0]
		token.TotalLiquidity = parsed[1]
		token.TradeVolume = parsed[2]
		token.TradeVolumeUSD = parsed[3]
		token.UntrackedVolumeUSD = parsed[4]
		token.TxCount = uint64(txCount)
		snapshot.PutToken(token)
	}
	return rows.Err()
}

func (s *Store) loadPairs(ctx context.Context, snapshot *memory.Store) error {
	rows, err := s.pool.Query(ctx, `
		SELECT address, token0, token1, reserve0::text, reserve1::text, reserve_native::text,
			reserve_usd::text, tracked_reserve_native::text, token0_price::text, token1_price::text,
			volume_token0::text, volume_token1::text, volume_usd::text, untracked_volume_usd::text,
			liquidity_provider_count, tx_count, created_at_block, created_at_timestamp
		FROM pairs
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pair                            model.Pair
			nums                            [11]string
			lpCount, txCount, block, tsUnix int64
		)
		if err := rows.Scan(&pair.Address, &pair.Token0, &pair.Token1,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &nums[6],
			&nums[7], &nums[8], &nums[9], &nums[10],
			&lpCount, &txCount, &block, &tsUnix); err != nil {
			return err
		}
		parsed, err := parseDecimals(nums[:])
		if err != nil {
			return fmt.Errorf("pair %s: %w", pair.Address, err)
		}
		pair.Reserve0 = parsed[0]
		pair.Reserve1 = parsed[1]
		pair.ReserveNative = parsed[2]
		pair.ReserveUSD = parsed[3]
		pair.TrackedReserveNative = parsed[4]
		pair.Token0Price = parsed[5]
		pair.Token1Price = parsed[6]
		pair.VolumeToken0 = parsed[7]
		pair.VolumeToken1 = parsed[8]
		pair.VolumeUSD = parsed[9]
		pair.UntrackedVolumeUSD = parsed[10]
		pair.LiquidityProviderCount = uint64(lpCount)
		pair.TxCount = uint64(txCount)
		pair.CreatedAtBlock = uint64(block)
		pair.CreatedAtTimestamp = uint64(tsUnix)
		snapshot.PutPair(pair)
	}
	return rows.Err()
}

func (s *Store) loadBundle(ctx context.Context, snapshot *memory.Store) error {
	var raw string
	row := s.pool.QueryRow(ctx, `SELECT native_price_usd::text FROM bundles WHERE id=$1`, model.BundleID)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	snapshot.PutBundle(model.Bundle{ID: model.BundleID, NativePriceUSD: price})
	return nil
}

func (s *Store) loadProviders(ctx context.Context, snapshot *memory.Store) error {
	rows, err := s.pool.Query(ctx, `SELECT pair_address, provider FROM liquidity_providers`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pair, provider string
		if err := rows.Scan(&pair, &provider); err != nil {
			return err
		}
		snapshot.AddProvider(pair, provider)
	}
	return rows.Err()
}

// LoadCursor returns last_processed_ts for a name.
func (s *Store) LoadCursor(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("cursor name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

func queueCursor(batch *pgx.Batch, cursor storage.Cursor) {
	batch.Queue(`
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, cursor.Name, int64(cursor.Timestamp))
}

// LoadWindows returns the persisted rows of every pair window of the given
// size starting at windowStart.
func (s *Store) LoadWindows(ctx context.Context, windowSeconds, windowStart uint64) ([]model.PairWindowMetrics, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, pair_address, window_start_ts, window_end_ts, swap_count, mint_count, burn_count,
			volume0::text, volume1::text, volume_usd::text, untracked_volume_usd::text,
			reserve0::text, reserve1::text, reserve_usd::text, tracked_reserve_usd::text, native_price_usd::text
		FROM pair_window_metrics
		WHERE window_size_seconds = $1 AND window_start_ts = $2
		ORDER BY pair_address
	`, int64(windowSeconds), time.Unix(int64(windowStart), 0).UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PairWindowMetrics
	for rows.Next() {
		var (
			m                   model.PairWindowMetrics
			chainID             int64
			swaps, mints, burns int64
			nums                [9]string
		)
		if err := rows.Scan(&chainID, &m.PairAddress, &m.WindowStart, &m.WindowEnd, &swaps, &mints, &burns,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &nums[6], &nums[7], &nums[8]); err != nil {
			return nil, err
		}
		parsed, err := parseDecimals(nums[:])
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", m.PairAddress, err)
		}
		m.ChainID = uint64(chainID)
		m.WindowSizeSecs = int64(windowSeconds)
		m.WindowStart = m.WindowStart.UTC()
		m.WindowEnd = m.WindowEnd.UTC()
		m.SwapCount = uint64(swaps)
		m.MintCount = uint64(mints)
		m.BurnCount = uint64(burns)
		m.Volume0 = parsed[0]
		m.Volume1 = parsed[1]
		m.VolumeUSD = parsed[2]
		m.UntrackedVolumeUSD = parsed[3]
		m.Reserve0 = parsed[4]
		m.Reserve1 = parsed[5]
		m.ReserveUSD = parsed[6]
		m.TrackedReserveUSD = parsed[7]
		m.NativePriceUSD = parsed[8]
		out = append(out, m)
	}
	return out, rows.Err()
}

// Commit writes the changeset and its cursor in one transaction, so the
// checkpoint always matches the persisted totals.
func (s *Store) Commit(ctx context.Context, cs storage.Changeset) error {
	batch := buildBatch(cs)
	if batch.Len() == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return sendBatch(ctx, tx, batch)
	})
}

func buildBatch(cs storage.Changeset) *pgx.Batch {
	batch := &pgx.Batch{}
	queueTokens(batch, cs.Tokens)
	queuePairs(batch, cs.Pairs)
	if cs.Bundle != nil {
		queueBundle(batch, *cs.Bundle)
	}
	pairs := make([]string, 0, len(cs.Providers))
	for pair := range cs.Providers {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	for _, pair := range pairs {
		queueProviders(batch, pair, cs.Providers[pair])
	}
	queueWindows(batch, cs.Windows)
	if cs.Cursor.Name != "" {
		queueCursor(batch, cs.Cursor)
	}
	return batch
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

func parseDecimals(raw []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(raw))
	for i, value := range raw {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("parse numeric %q: %w", value, err)
		}
		out[i] = parsed
	}
	return out, nil
}
