package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"edgealign/internal/domain"
)

// memStore is an in-memory RunStore.
type memStore struct {
	mu      sync.Mutex
	runs    []domain.OptimizeRun
	failing bool
	pruned  []time.Time
}

var errJournalDown = errors.New("journal down")

func (m *memStore) RecordRun(_ context.Context, r *domain.OptimizeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errJournalDown
	}
	r.ID = "run-" + string(rune('a'+len(m.runs)))
	r.CreatedAt = time.Now().UTC()
	m.runs = append(m.runs, *r)
	return nil
}

func (m *memStore) ListRuns(_ context.Context, limit int) ([]domain.OptimizeRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.OptimizeRun(nil), m.runs...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) PruneRuns(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = append(m.pruned, olderThan)
	return 0, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) recorded() []domain.OptimizeRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OptimizeRun(nil), m.runs...)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// rowDiagram has two shapes side by side and an arrow between them whose
// stored geometry is stale.
const rowDiagram = `[
  {"id": "a", "type": "rectangle", "x": 0, "y": 0, "width": 100, "height": 100},
  {"id": "b", "type": "rectangle", "x": 200, "y": 0, "width": 100, "height": 100},
  {"id": "arr", "type": "arrow", "x": 5, "y": 5, "width": 10, "height": 10, "start": {"id": "a"}, "end": {"id": "b"}}
]`
