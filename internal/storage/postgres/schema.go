package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tokens (
		address TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		name TEXT NOT NULL,
		decimals SMALLINT NOT NULL,
		derived_native NUMERIC NOT NULL DEFAULT 0,
		total_liquidity NUMERIC NOT NULL DEFAULT 0,
		trade_volume NUMERIC NOT NULL DEFAULT 0,
		trade_volume_usd NUMERIC NOT NULL DEFAULT 0,
		untracked_volume_usd NUMERIC NOT NULL DEFAULT 0,
		tx_count BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pairs (
		address TEXT PRIMARY KEY,
		token0 TEXT NOT NULL,
		token1 TEXT NOT NULL,
		reserve0 NUMERIC NOT NULL DEFAULT 0,
		reserve1 NUMERIC NOT NULL DEFAULT 0,
		reserve_native NUMERIC NOT NULL DEFAULT 0,
		reserve_usd NUMERIC NOT NULL DEFAULT 0,
		tracked_reserve_native NUMERIC NOT NULL DEFAULT 0,
		token0_price NUMERIC NOT NULL DEFAULT 0,
		token1_price NUMERIC NOT NULL DEFAULT 0,
		liquidity_provider_count BIGINT NOT NULL DEFAULT 0,
		volume_token0 NUMERIC NOT NULL DEFAULT 0,
		volume_token1 NUMERIC NOT NULL DEFAULT 0,
		volume_usd NUMERIC NOT NULL DEFAULT 0,
		untracked_volume_usd NUMERIC NOT NULL DEFAULT 0,
		tx_count BIGINT NOT NULL DEFAULT 0,
		created_at_block BIGINT NOT NULL DEFAULT 0,
		created_at_timestamp BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS pairs_tokens_idx ON pairs (token0, token1)`,
	`CREATE TABLE IF NOT EXISTS bundles (
		id TEXT PRIMARY KEY,
		native_price_usd NUMERIC NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS liquidity_providers (
		pair_address TEXT NOT NULL,
		provider TEXT NOT NULL,
		PRIMARY KEY (pair_address, provider)
	)`,
	`CREATE TABLE IF NOT EXISTS pair_window_metrics (
		chain_id BIGINT NOT NULL,
		pair_address TEXT NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		window_start_ts TIMESTAMPTZ NOT NULL,
		window_end_ts TIMESTAMPTZ NOT NULL,
		swap_count BIGINT NOT NULL DEFAULT 0,
		mint_count BIGINT NOT NULL DEFAULT 0,
		burn_count BIGINT NOT NULL DEFAULT 0,
		volume0 NUMERIC NOT NULL DEFAULT 0,
		volume1 NUMERIC NOT NULL DEFAULT 0,
		volume_usd NUMERIC NOT NULL DEFAULT 0,
		untracked_volume_usd NUMERIC NOT NULL DEFAULT 0,
		reserve0 NUMERIC NOT NULL DEFAULT 0,
		reserve1 NUMERIC NOT NULL DEFAULT 0,
		reserve_usd NUMERIC NOT NULL DEFAULT 0,
		tracked_reserve_usd NUMERIC NOT NULL DEFAULT 0,
		native_price_usd NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (chain_id, pair_address, window_size_seconds, window_start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS indexer_state (
		name TEXT PRIMARY KEY,
		last_processed_ts BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS typed_events (
		chain_id BIGINT NOT NULL,
		block_number BIGINT NOT NULL,
		block_hash TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		log_index BIGINT NOT NULL,
		address TEXT NOT NULL,
		event_name TEXT NOT NULL,
		block_timestamp BIGINT NOT NULL,
		decoded JSONB NOT NULL,
		PRIMARY KEY (chain_id, tx_hash, log_index)
	)`,
}
