package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"priceScope/internal/model"
	"priceScope/internal/storage/memory"
)

// Record kinds written by JsonlSink.
const (
	KindToken     = "token"
	KindPair      = "pair"
	KindBundle    = "bundle"
	KindProviders = "providers"
	KindWindow    = "pair_window"
	KindCursor    = "cursor"
)

type jsonlEnvelope struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

type jsonlRecord struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type providersRecord struct {
	Pair      string   `json:"pair"`
	Providers []string `json:"providers"`
}

type cursorRecord struct {
	Name      string `json:"name"`
	Timestamp uint64 `json:"timestamp"`
}

// JsonlSink appends every commit as JSON lines, for runs without Postgres.
// A commit is written with a single write and closed by its cursor record;
// lines after the last cursor belong to a torn commit and are ignored.
type JsonlSink struct {
	path string
	mu   sync.Mutex
}

func NewJsonlSink(path string) *JsonlSink {
	return &JsonlSink{path: path}
}

// Commit appends the changeset.
func (s *JsonlSink) Commit(_ context.Context, cs Changeset) error {
	if cs.Empty() {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	write := func(kind string, data interface{}) error {
		if err := enc.Encode(jsonlEnvelope{Kind: kind, Data: data}); err != nil {
			return fmt.Errorf("marshal %s record: %w", kind, err)
		}
		return nil
	}

	for _, token := range cs.Tokens {
		if err := write(KindToken, token); err != nil {
			return err
		}
	}
	for _, pair := range cs.Pairs {
		if err := write(KindPair, pair); err != nil {
			return err
		}
	}
	if cs.Bundle != nil {
		if err := write(KindBundle, *cs.Bundle); err != nil {
			return err
		}
	}
	pairs := make([]string, 0, len(cs.Providers))
	for pair := range cs.Providers {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	for _, pair := range pairs {
		if err := write(KindProviders, providersRecord{Pair: pair, Providers: cs.Providers[pair]}); err != nil {
			return err
		}
	}
	for _, m := range cs.Windows {
		if err := write(KindWindow, m); err != nil {
			return err
		}
	}
	if err := write(KindCursor, cursorRecord{Name: cs.Cursor.Name, Timestamp: cs.Cursor.Timestamp}); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	if _, err := file.Write(buf.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("write commit: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync output: %w", err)
	}
	return file.Close()
}

// LoadSnapshot rebuilds entity state from every committed record and drops
// a torn tail so later commits start on a clean line.
func (s *JsonlSink) LoadSnapshot(_ context.Context) (*memory.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, size, err := s.committed()
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(s.path); err == nil && info.Size() > size {
		if err := os.Truncate(s.path, size); err != nil {
			return nil, fmt.Errorf("truncate torn commit: %w", err)
		}
	}

	snapshot := memory.New()
	for _, rec := range records {
		switch rec.Kind {
		case KindToken:
			var token model.Token
			if err := json.Unmarshal(rec.Data, &token); err != nil {
				return nil, fmt.Errorf("decode token: %w", err)
			}
			snapshot.PutToken(token)
		case KindPair:
			var pair model.Pair
			if err := json.Unmarshal(rec.Data, &pair); err != nil {
				return nil, fmt.Errorf("decode pair: %w", err)
			}
			snapshot.PutPair(pair)
		case KindBundle:
			var bundle model.Bundle
			if err := json.Unmarshal(rec.Data, &bundle); err != nil {
				return nil, fmt.Errorf("decode bundle: %w", err)
			}
			snapshot.PutBundle(bundle)
		case KindProviders:
			var providers providersRecord
			if err := json.Unmarshal(rec.Data, &providers); err != nil {
				return nil, fmt.Errorf("decode providers: %w", err)
			}
			for _, provider := range providers.Providers {
				snapshot.AddProvider(providers.Pair, provider)
			}
		}
	}
	return snapshot, nil
}

// LoadCursor returns the timestamp of the last committed cursor for name.
func (s *JsonlSink) LoadCursor(_ context.Context, name string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := s.committed()
	if err != nil {
		return 0, false, err
	}
	var (
		ts    uint64
		found bool
	)
	for _, rec := range records {
		if rec.Kind != KindCursor {
			continue
		}
		var cursor cursorRecord
		if err := json.Unmarshal(rec.Data, &cursor); err != nil {
			return 0, false, fmt.Errorf("decode cursor: %w", err)
		}
		if cursor.Name == name {
			ts, found = cursor.Timestamp, true
		}
	}
	return ts, found, nil
}

// LoadWindows returns the latest committed row of every pair window starting
// at windowStart.
func (s *JsonlSink) LoadWindows(_ context.Context, windowSeconds, windowStart uint64) ([]model.PairWindowMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := s.committed()
	if err != nil {
		return nil, err
	}
	latest := make(map[string]model.PairWindowMetrics)
	for _, rec := range records {
		if rec.Kind != KindWindow {
			continue
		}
		var m model.PairWindowMetrics
		if err := json.Unmarshal(rec.Data, &m); err != nil {
			return nil, fmt.Errorf("decode window: %w", err)
		}
		if uint64(m.WindowSizeSecs) != windowSeconds || uint64(m.WindowStart.Unix()) != windowStart {
			continue
		}
		latest[m.PairAddress] = m
	}

	keys := make([]string, 0, len(latest))
	for key := range latest {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]model.PairWindowMetrics, 0, len(keys))
	for _, key := range keys {
		out = append(out, latest[key])
	}
	return out, nil
}

// committed reads the records of completed commits and the byte length they
// span. Callers hold s.mu.
func (s *JsonlSink) committed() ([]jsonlRecord, int64, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	var (
		out     []jsonlRecord
		pending []jsonlRecord
		offset  int64
		size    int64
	)
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("read output file: %w", err)
		}
		if errors.Is(err, io.EOF) {
			// A line without its newline is a torn write.
			break
		}
		offset += int64(len(line))

		var rec jsonlRecord
		if jerr := json.Unmarshal(line, &rec); jerr != nil {
			break
		}
		pending = append(pending, rec)
		if rec.Kind == KindCursor {
			out = append(out, pending...)
			pending = nil
			size = offset
		}
	}
	return out, size, nil
}
