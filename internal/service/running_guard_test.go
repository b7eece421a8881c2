package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"edgealign/internal/domain"
)

func TestPathGuard_TryLock(t *testing.T) {
	var g pathGuard

	if !g.TryLock("/tmp/a.json") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("/tmp/a.json") {
		t.Fatal("expected second TryLock for same path to fail")
	}
	if !g.TryLock("/tmp/b.json") {
		t.Fatal("expected TryLock for different path to succeed")
	}
	g.Unlock("/tmp/a.json")
	g.Unlock("/tmp/b.json")

	if !g.TryLock("/tmp/a.json") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("/tmp/a.json")
}

func TestPathGuard_SameFileDifferentSpelling(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	abs := filepath.Join(dir, "docs", "a.json")

	var g pathGuard
	if !g.TryLock("docs/a.json") {
		t.Fatal("expected first TryLock to succeed")
	}
	for _, alias := range []string{"docs/../docs/./a.json", "./docs/a.json", abs, "docs//a.json"} {
		if g.TryLock(alias) {
			t.Fatalf("TryLock(%q) succeeded while docs/a.json is held", alias)
		}
	}
	if !g.TryLock("docs/b.json") {
		t.Fatal("expected a sibling file to be independent")
	}

	// Releasing through another spelling frees the same entry.
	g.Unlock(abs)
	g.Unlock("./docs/b.json")
	if len(g.running) != 0 {
		t.Fatalf("expected no busy paths, got %v", g.running)
	}
	if !g.TryLock("docs/../docs/a.json") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("docs/a.json")
}

func TestPathGuard_WaitAll(t *testing.T) {
	var g pathGuard

	if !g.TryLock("doc") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("./doc")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

func TestOptimizeFile_BusyUnderAnotherSpelling(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll("docs", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("docs", "a.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewOptimizeService(nil, &MockEmitter{}, log.New(io.Discard))
	abs := filepath.Join(dir, "docs", "a.json")
	if !svc.files.TryLock(abs) {
		t.Fatal("expected lock to succeed")
	}
	defer svc.files.Unlock(abs)

	_, err := svc.OptimizeFile(context.Background(), domain.RunSourceWatch, "docs/../docs/a.json")
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}
