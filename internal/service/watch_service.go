package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"edgealign/internal/config"
	"edgealign/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Watch Service — keeps diagram files on disk aligned
// ─────────────────────────────────────────────────────────────

// WatchService re-optimizes documents when they change on disk, sweeps
// whole directories on a cron schedule and prunes the run journal.
type WatchService struct {
	optimize  *OptimizeService
	runs      domain.RunStore
	emitter   EventEmitter
	logger    *log.Logger
	cfg       config.WatchConfig
	retention time.Duration

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watchDone   chan struct{}
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewWatchService creates a WatchService ready for use.
func NewWatchService(
	optimize *OptimizeService,
	runs domain.RunStore,
	emitter EventEmitter,
	logger *log.Logger,
	cfg config.WatchConfig,
	retention time.Duration,
) *WatchService {
	return &WatchService{
		optimize:  optimize,
		runs:      runs,
		emitter:   emitter,
		logger:    logger,
		cfg:       cfg,
		retention: retention,
	}
}

// SweepResult summarizes a directory sweep.
type SweepResult struct {
	Files     int `json:"files"`
	Rewritten int `json:"rewritten"`
	Failed    int `json:"failed"`
}

// Sweep optimizes every matching file under dirs, Workers at a time.
// Unparseable documents count as failed; I/O errors abort the sweep.
func (s *WatchService) Sweep(ctx context.Context, dirs []string) (SweepResult, error) {
	files, err := s.collectFiles(dirs)
	if err != nil {
		return SweepResult{}, err
	}

	var rewritten, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, path := range files {
		g.Go(func() error {
			out, err := s.optimize.OptimizeFile(gctx, domain.RunSourceSweep, path)
			if errors.Is(err, ErrBusy) {
				return nil
			}
			if err != nil {
				return err
			}
			if out.Err != nil {
				failed.Add(1)
			} else if out.Changed {
				rewritten.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{}, fmt.Errorf("sweep: %w", err)
	}

	res := SweepResult{Files: len(files), Rewritten: int(rewritten.Load()), Failed: int(failed.Load())}
	s.logger.Info("sweep: done", "files", res.Files, "rewritten", res.Rewritten, "failed", res.Failed)
	s.emitter.Emit(ctx, EventSweepCompleted, res)
	return res, nil
}

// collectFiles walks dirs for documents with a watched extension.
func (s *WatchService) collectFiles(dirs []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !s.cfg.MatchesExtension(path) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	return files, nil
}

// Prune deletes journal entries older than the configured retention.
func (s *WatchService) Prune(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	n, err := s.runs.PruneRuns(ctx, time.Now().Add(-s.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("journal: pruned runs", "count", n)
	}
	return n, nil
}

// Start watches dirs (recursively, including directories created later)
// and schedules sweeps and pruning.
// It returns once the watcher is running; call Stop to tear it down.
func (s *WatchService) Start(ctx context.Context, dirs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	watched := 0
	for _, dir := range dirs {
		n, err := s.watchTree(watcher, dir, nil)
		if err != nil {
			watcher.Close()
			return err
		}
		watched += n
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.watcher = watcher
	s.watchCancel = cancel
	s.watchDone = make(chan struct{})
	go s.eventLoop(watchCtx, watcher, s.watchDone)

	// ── Cron jobs ──
	c := cron.New()
	if s.cfg.Schedule != "" {
		if _, err := c.AddFunc(s.cfg.Schedule, func() {
			if _, err := s.Sweep(watchCtx, dirs); err != nil {
				s.logger.Error("watch cron: sweep failed", "err", err)
			}
		}); err != nil {
			s.stopLocked()
			return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
		}
	}
	if s.cfg.Prune != "" && s.retention > 0 {
		if _, err := c.AddFunc(s.cfg.Prune, func() {
			if _, err := s.Prune(watchCtx); err != nil {
				s.logger.Error("watch cron: prune failed", "err", err)
			}
		}); err != nil {
			s.stopLocked()
			return fmt.Errorf("invalid prune schedule %q: %w", s.cfg.Prune, err)
		}
	}
	if len(c.Entries()) > 0 {
		c.Start()
		s.cronSched = c
	}

	s.logger.Info("watch: started", "dirs", watched, "schedule", s.cfg.Schedule)
	return nil
}

func (s *WatchService) eventLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	pending := newDebouncer()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					s.watchNewDir(ctx, watcher, pending, event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !s.cfg.MatchesExtension(event.Name) {
				continue
			}
			s.schedule(ctx, pending, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("watch: watcher error", "err", err)
		}
	}
}

// schedule queues a debounced rewrite of path.
func (s *WatchService) schedule(ctx context.Context, pending *debouncer, path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	pending.Trigger(absPath, s.cfg.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		s.handleChange(ctx, absPath)
	})
}

// watchNewDir adds a directory created under a watched root. Documents
// already inside it are queued, since their events predate the watch.
func (s *WatchService) watchNewDir(ctx context.Context, watcher *fsnotify.Watcher, pending *debouncer, dir string) {
	n, err := s.watchTree(watcher, dir, func(path string) {
		s.schedule(ctx, pending, path)
	})
	if err != nil {
		s.logger.Warn("watch: cannot watch new directory", "dir", dir, "err", err)
	}
	if n > 0 {
		s.logger.Debug("watch: added directory", "dir", dir, "dirs", n)
	}
}

// watchTree adds root and every directory below it to watcher and returns
// how many were added. onFile, when set, receives each matching document.
func (s *WatchService) watchTree(watcher *fsnotify.Watcher, root string, onFile func(path string)) (int, error) {
	added := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if onFile != nil && s.cfg.MatchesExtension(path) {
				onFile(path)
			}
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		added++
		return nil
	})
	return added, err
}

func (s *WatchService) handleChange(ctx context.Context, path string) {
	out, err := s.optimize.OptimizeFile(ctx, domain.RunSourceWatch, path)
	switch {
	case errors.Is(err, ErrBusy):
		s.logger.Debug("watch: skipped busy file", "path", path)
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("watch: file vanished", "path", path)
	case err != nil:
		s.logger.Error("watch: optimize failed", "path", path, "err", err)
	case out.Err != nil:
		s.logger.Warn("watch: document not optimized", "path", path, "status", out.Report.Status)
	}
}

// WaitRunning blocks until in-flight rewrites finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *WatchService) WaitRunning(ctx context.Context) {
	s.optimize.WaitRunning(ctx)
}

// Stop tears down the watcher and scheduler.
func (s *WatchService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *WatchService) stopLocked() {
	if s.cronSched != nil {
		<-s.cronSched.Stop().Done()
		s.cronSched = nil
	}
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.watchDone != nil {
		<-s.watchDone
		s.watchDone = nil
	}
}
