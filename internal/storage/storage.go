package storage

import (
	"context"

	"priceScope/internal/model"
)

// Cursor marks the last event timestamp whose effects are contained in a
// committed changeset. An empty Name means the changeset carries no cursor.
type Cursor struct {
	Name      string
	Timestamp uint64
}

// Changeset is everything one aggregation flush persists. Entity values are
// absolute totals, window rows include still-open windows as partial rows.
type Changeset struct {
	Tokens    []model.Token
	Pairs     []model.Pair
	Bundle    *model.Bundle
	Providers map[string][]string
	Windows   []model.PairWindowMetrics
	Cursor    Cursor
}

// Empty reports whether the changeset has nothing to write.
func (c Changeset) Empty() bool {
	return len(c.Tokens) == 0 && len(c.Pairs) == 0 && c.Bundle == nil &&
		len(c.Providers) == 0 && len(c.Windows) == 0 && c.Cursor.Name == ""
}

// Sink persists changesets. A commit either lands whole or not at all.
type Sink interface {
	Commit(ctx context.Context, cs Changeset) error
}

// Resumable is implemented by sinks a run can pick up from: the cursor of the
// last commit and the window rows that may still receive events.
type Resumable interface {
	LoadCursor(ctx context.Context, name string) (uint64, bool, error)
	LoadWindows(ctx context.Context, windowSeconds, windowStart uint64) ([]model.PairWindowMetrics, error)
}
