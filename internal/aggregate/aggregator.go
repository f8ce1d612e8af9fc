package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"priceScope/internal/model"
	"priceScope/internal/pricing"
	"priceScope/internal/storage"
	"priceScope/internal/storage/memory"
)

const (
	resultApplied = "applied"
	resultSkipped = "skipped"
	resultFailed  = "failed"
)

var errUnknownPair = errors.New("unknown pair")

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	// CursorName keys the checkpoint committed with every flush. It defaults
	// to "aggregator:<window seconds>" so windows of different sizes never
	// share a checkpoint.
	CursorName string
}

// TokenMetaSource resolves token metadata for newly created pairs.
type TokenMetaSource interface {
	TokenMeta(ctx context.Context, address string) (model.TokenMeta, error)
}

// Aggregator replays typed pair events into entity state and pair window
// metrics. Events are applied strictly one at a time in input order: each
// event updates state, then reads prices, then accumulates.
type Aggregator struct {
	cfg          Config
	state        *memory.Store
	engine       *pricing.Engine
	sink         storage.Sink
	meta         TokenMetaSource
	metrics      *Metrics
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	pending      []model.PairWindowMetrics

	dirtyTokens    map[string]struct{}
	dirtyPairs     map[string]struct{}
	dirtyProviders map[string]struct{}
	dirtyWindows   map[string]struct{}
	bundleDirty    bool
}

// NewAggregator wires a replay over state. engine must read from state.
// meta may be nil, in which case new tokens default to 18 decimals.
func NewAggregator(cfg Config, state *memory.Store, engine *pricing.Engine, sink storage.Sink, meta TokenMetaSource, metrics *Metrics, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Aggregator{
		cfg:            cfg,
		state:          state,
		engine:         engine,
		sink:           sink,
		meta:           meta,
		metrics:        metrics,
		logger:         logger,
		accumulators:   make(map[string]*Accumulator),
		dirtyTokens:    make(map[string]struct{}),
		dirtyPairs:     make(map[string]struct{}),
		dirtyProviders: make(map[string]struct{}),
		dirtyWindows:   make(map[string]struct{}),
	}
}

// Run executes aggregation over a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	return a.Replay(ctx, file)
}

// Replay executes aggregation over a typed events JSONL stream.
func (a *Aggregator) Replay(ctx context.Context, input io.Reader) error {
	if a.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if a.state == nil || a.engine == nil {
		return fmt.Errorf("state and engine are required")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}
	if a.cfg.CursorName == "" {
		a.cfg.CursorName = fmt.Sprintf("aggregator:%d", a.cfg.WindowSeconds)
	}

	startTs, hasStart, err := a.loadStart(ctx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(input)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	// cursor is the newest timestamp processed so far. A commit only happens
	// once the input has moved past it, so every event at or before a
	// committed cursor is reflected in the committed totals.
	cursor := startTs
	seen := hasStart
	var total, applied, skipped, failed int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		if hasStart && record.Timestamp <= startTs {
			skipped++
			a.metrics.Events.WithLabelValues(record.EventName, resultSkipped).Inc()
			continue
		}

		if seen && record.Timestamp > cursor && len(a.pending) >= a.cfg.BatchSize {
			if err := a.flush(ctx, cursor, true); err != nil {
				return err
			}
		}
		if !seen || record.Timestamp > cursor {
			cursor = record.Timestamp
		}
		seen = true

		if err := a.apply(ctx, record); err != nil {
			if errors.Is(err, errUnknownPair) {
				skipped++
				a.metrics.Events.WithLabelValues(record.EventName, resultSkipped).Inc()
				a.logger.Debug("event for unknown pair", zap.String("pair", record.Address), zap.String("event", record.EventName))
				continue
			}
			failed++
			a.metrics.Events.WithLabelValues(record.EventName, resultFailed).Inc()
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pair", record.Address), zap.String("event", record.EventName))
			continue
		}
		applied++
		a.metrics.Events.WithLabelValues(record.EventName, resultApplied).Inc()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	keys := make([]string, 0, len(a.accumulators))
	for key := range a.accumulators {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		a.pending = append(a.pending, a.accumulators[key].Metrics(a.cfg.WindowSeconds))
	}
	a.accumulators = make(map[string]*Accumulator)
	a.dirtyWindows = make(map[string]struct{})

	if err := a.flush(ctx, cursor, seen); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("cursor", cursor),
	)

	return nil
}

func (a *Aggregator) apply(ctx context.Context, record model.TypedEventRecord) error {
	switch strings.ToLower(record.EventName) {
	case strings.ToLower(model.EventPairCreated):
		return a.handlePairCreated(ctx, record)
	case strings.ToLower(model.EventSync):
		return a.handleSync(ctx, record)
	case strings.ToLower(model.EventSwap):
		return a.handleSwap(record)
	case strings.ToLower(model.EventMint):
		return a.handleMint(record)
	case strings.ToLower(model.EventBurn):
		return a.handleBurn(record)
	default:
		return fmt.Errorf("unsupported event %q", record.EventName)
	}
}

// window returns the accumulator for the record's pair, rotating it into
// the pending batch when the record starts a new window.
func (a *Aggregator) window(record model.TypedEventRecord) *Accumulator {
	start := windowStart(record.Timestamp, a.cfg.WindowSeconds)
	end := start + a.cfg.WindowSeconds

	key := pairKey(record.Address)
	acc := a.accumulators[key]
	if acc != nil && acc.WindowStart != start {
		a.pending = append(a.pending, acc.Metrics(a.cfg.WindowSeconds))
		acc = nil
	}
	if acc == nil {
		acc = NewAccumulator(record, start, end)
		acc.PairAddress = key
		a.accumulators[key] = acc
	}
	acc.Touch(record)
	a.dirtyWindows[key] = struct{}{}
	return acc
}

// flush commits dirty entities, closed windows and the current rows of open
// windows together with the cursor. Nothing is reset unless the commit lands.
func (a *Aggregator) flush(ctx context.Context, cursor uint64, withCursor bool) error {
	cs := storage.Changeset{}

	for _, address := range sortedKeys(a.dirtyTokens) {
		if token, ok := a.state.LoadToken(address); ok {
			cs.Tokens = append(cs.Tokens, token)
		}
	}
	for _, address := range sortedKeys(a.dirtyPairs) {
		if pair, ok := a.state.LoadPair(address); ok {
			cs.Pairs = append(cs.Pairs, pair)
		}
	}
	if len(a.dirtyProviders) > 0 {
		cs.Providers = make(map[string][]string, len(a.dirtyProviders))
		for pair := range a.dirtyProviders {
			cs.Providers[pair] = a.state.Providers(pair)
		}
	}
	if a.bundleDirty {
		if bundle, ok := a.state.LoadBundle(model.BundleID); ok {
			cs.Bundle = &bundle
		}
	}

	closed := len(a.pending)
	cs.Windows = append(cs.Windows, a.pending...)
	for _, key := range sortedKeys(a.dirtyWindows) {
		if acc := a.accumulators[key]; acc != nil {
			cs.Windows = append(cs.Windows, acc.Metrics(a.cfg.WindowSeconds))
		}
	}
	if withCursor {
		cs.Cursor = storage.Cursor{Name: a.cfg.CursorName, Timestamp: cursor}
	}

	if cs.Empty() {
		return nil
	}
	if err := a.sink.Commit(ctx, cs); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	a.metrics.WindowsFlushed.Add(float64(closed))
	a.dirtyTokens = make(map[string]struct{})
	a.dirtyPairs = make(map[string]struct{})
	a.dirtyProviders = make(map[string]struct{})
	a.dirtyWindows = make(map[string]struct{})
	a.bundleDirty = false
	a.pending = a.pending[:0]
	return nil
}

// loadStart returns the timestamp events must be newer than, and whether
// one applies at all. Resuming from a committed cursor also reopens the
// windows that can still receive events.
func (a *Aggregator) loadStart(ctx context.Context) (uint64, bool, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, true, nil
	}
	resumable, ok := a.sink.(storage.Resumable)
	if !ok {
		return 0, false, nil
	}
	last, found, err := resumable.LoadCursor(ctx, a.cfg.CursorName)
	if err != nil {
		return 0, false, fmt.Errorf("load cursor: %w", err)
	}
	if !found {
		return 0, false, nil
	}

	open, err := resumable.LoadWindows(ctx, a.cfg.WindowSeconds, windowStart(last, a.cfg.WindowSeconds))
	if err != nil {
		return 0, false, fmt.Errorf("load open windows: %w", err)
	}
	for _, m := range open {
		acc := accumulatorFromMetrics(m)
		a.accumulators[acc.PairAddress] = acc
	}
	a.logger.Info("resume from cursor", zap.String("cursor", a.cfg.CursorName), zap.Uint64("ts", last), zap.Int("open_windows", len(open)))
	return last, true, nil
}

func (a *Aggregator) markToken(address string) { a.dirtyTokens[address] = struct{}{} }
func (a *Aggregator) markPair(address string)  { a.dirtyPairs[address] = struct{}{} }

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func pairKey(address string) string {
	return strings.ToLower(address)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
