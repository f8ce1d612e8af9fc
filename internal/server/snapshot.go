package server

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"priceScope/internal/storage/memory"
)

// SnapshotSource provides a consistent read view of entity state. A live
// *memory.Store satisfies it by copying; Holder swaps whole loaded stores.
type SnapshotSource interface {
	Snapshot() *memory.Store
}

// Loader reads a fresh snapshot, e.g. postgres.Store.LoadSnapshot.
type Loader func(ctx context.Context) (*memory.Store, error)

// Holder serves the most recently loaded snapshot. Readers never block on a reload.
type Holder struct {
	current atomic.Pointer[memory.Store]
	load    Loader
	logger  *zap.Logger
}

func NewHolder(initial *memory.Store, load Loader, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if initial == nil {
		initial = memory.New()
	}
	h := &Holder{load: load, logger: logger}
	h.current.Store(initial)
	return h
}

func (h *Holder) Snapshot() *memory.Store {
	return h.current.Load()
}

// Reload replaces the served snapshot. On error the previous one is kept.
func (h *Holder) Reload(ctx context.Context) error {
	if h.load == nil {
		return nil
	}
	next, err := h.load(ctx)
	if err != nil {
		return err
	}
	h.current.Store(next)
	return nil
}

// Run reloads every interval until ctx is done.
func (h *Holder) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || h.load == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Reload(ctx); err != nil {
				h.logger.Warn("snapshot reload failed", zap.Error(err))
			}
		}
	}
}
