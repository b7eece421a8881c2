package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"edgealign/internal/config"
	"edgealign/internal/drawing"
	"edgealign/internal/service"
)

func newWatchService(t *testing.T, store *memStore, emitter *service.MockEmitter) *service.WatchService {
	t.Helper()
	cfg := config.Default().Watch
	cfg.Debounce = 20 * time.Millisecond
	cfg.Schedule = ""
	cfg.Prune = ""
	cfg.Workers = 2
	opt := service.NewOptimizeService(store, emitter, quietLogger())
	return service.NewWatchService(opt, store, emitter, quietLogger(), cfg, 24*time.Hour)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestWatchService_Sweep(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.json"), rowDiagram)
	writeFile(t, filepath.Join(dir, "nested", "two.excalidraw"), rowDiagram)
	writeFile(t, filepath.Join(dir, "aligned.json"), drawing.Optimize(rowDiagram))
	writeFile(t, filepath.Join(dir, "broken.json"), "[{")
	writeFile(t, filepath.Join(dir, "notes.md"), rowDiagram)

	store := &memStore{}
	emitter := &service.MockEmitter{}
	svc := newWatchService(t, store, emitter)

	res, err := svc.Sweep(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, service.SweepResult{Files: 4, Rewritten: 2, Failed: 1}, res)
	assert.Len(t, store.recorded(), 4)
	assert.Len(t, emitter.Named(service.EventSweepCompleted), 1)

	md, err := os.ReadFile(filepath.Join(dir, "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, rowDiagram, string(md), "unwatched extensions are ignored")

	// Everything aligned now, so a second sweep rewrites nothing.
	res, err = svc.Sweep(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rewritten)
}

func TestWatchService_SweepMissingDir(t *testing.T) {
	svc := newWatchService(t, &memStore{}, &service.MockEmitter{})
	_, err := svc.Sweep(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestWatchService_Prune(t *testing.T) {
	store := &memStore{}
	svc := newWatchService(t, store, &service.MockEmitter{})

	before := time.Now()
	_, err := svc.Prune(context.Background())
	require.NoError(t, err)
	require.Len(t, store.pruned, 1)
	assert.WithinDuration(t, before.Add(-24*time.Hour), store.pruned[0], time.Minute)
}

func TestWatchService_RewritesOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "live.json")
	writeFile(t, path, "[]")

	emitter := &service.MockEmitter{}
	svc := newWatchService(t, &memStore{}, emitter)
	require.NoError(t, svc.Start(context.Background(), []string{dir}))

	writeFile(t, path, rowDiagram)

	want := drawing.Optimize(rowDiagram)
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == want
	}, 5*time.Second, 20*time.Millisecond)

	svc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.WaitRunning(ctx)
}

func TestWatchService_WatchesNewDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	svc := newWatchService(t, &memStore{}, &service.MockEmitter{})
	require.NoError(t, svc.Start(context.Background(), []string{dir}))

	sub := filepath.Join(dir, "added", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	path := filepath.Join(sub, "late.json")
	writeFile(t, path, rowDiagram)

	want := drawing.Optimize(rowDiagram)
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == want
	}, 5*time.Second, 20*time.Millisecond)

	svc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.WaitRunning(ctx)
}

func TestWatchService_InvalidSchedule(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default().Watch
	cfg.Schedule = "every now and then"
	store := &memStore{}
	opt := service.NewOptimizeService(store, &service.MockEmitter{}, quietLogger())
	svc := service.NewWatchService(opt, store, &service.MockEmitter{}, quietLogger(), cfg, 0)

	err := svc.Start(context.Background(), []string{t.TempDir()})
	assert.ErrorContains(t, err, "invalid sweep schedule")
}

func TestWatchService_StopIdempotent(t *testing.T) {
	svc := newWatchService(t, &memStore{}, &service.MockEmitter{})
	svc.Stop()
	svc.Stop()
}
