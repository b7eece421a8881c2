package service

import (
	"context"
	"path/filepath"
	"sync"
)

// pathGuard makes sure a file is optimized by at most one goroutine at a
// time, so a watcher event racing a scheduled sweep cannot interleave
// read-optimize-write cycles on the same document. Paths are compared in
// absolute, cleaned form: "docs/a.json" and "./docs/../docs/a.json" are
// the same document.
type pathGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks path as busy. Returns false if it already is.
func (g *pathGuard) TryLock(path string) bool {
	path = guardKey(path)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[path]; ok {
		return false
	}
	g.running[path] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases path. Must follow a successful TryLock.
func (g *pathGuard) Unlock(path string) {
	path = guardKey(path)
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, path)
	g.wg.Done()
}

// WaitAll blocks until every busy path is released or ctx is cancelled.
func (g *pathGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func guardKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
