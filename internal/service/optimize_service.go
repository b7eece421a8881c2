package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"edgealign/internal/domain"
	"edgealign/internal/drawing"
)

// ErrBusy is returned when a file is already being optimized.
var ErrBusy = errors.New("file is already being optimized")

// ─────────────────────────────────────────────────────────────
// Optimize Service — runs the alignment pass and journals it
// ─────────────────────────────────────────────────────────────

// OptimizeService wraps the optimizer with run journaling and events.
// Journal failures are logged and never change the optimization result.
type OptimizeService struct {
	optimizer *drawing.Optimizer
	runs      domain.RunStore
	emitter   EventEmitter
	logger    *log.Logger
	files     pathGuard
}

// NewOptimizeService creates an OptimizeService ready for use.
func NewOptimizeService(runs domain.RunStore, emitter EventEmitter, logger *log.Logger) *OptimizeService {
	return &OptimizeService{
		optimizer: drawing.New(drawing.WithLogger(logger)),
		runs:      runs,
		emitter:   emitter,
		logger:    logger,
	}
}

// Outcome is the result of a journaled pass.
type Outcome struct {
	drawing.Result
	Run *domain.OptimizeRun
	// Changed is true when the output text differs from the input.
	Changed bool
}

// Optimize runs one pass over text on behalf of source.
func (s *OptimizeService) Optimize(ctx context.Context, source domain.RunSource, path, text string) Outcome {
	start := time.Now()
	res := s.optimizer.Optimize(text)
	out := Outcome{Result: res, Changed: res.Text != text}

	rep := res.Report
	out.Run = &domain.OptimizeRun{
		Source:     source,
		Path:       path,
		Status:     string(rep.Status),
		Elements:   rep.Elements,
		Connectors: rep.Connectors,
		Rewritten:  rep.Rewritten(),
		WidthFixed: rep.WidthFixed,
		Unbound:    rep.Unbound,
		Changed:    out.Changed,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err := s.runs.RecordRun(ctx, out.Run); err != nil {
		s.logger.Warn("journal: record failed", "err", err)
	}

	s.logger.Debug("optimize: run finished",
		"run", out.Run.ID,
		"source", source,
		"status", rep.Status,
		"rewritten", rep.Rewritten(),
		"unbound", rep.Unbound,
	)
	s.emitter.Emit(ctx, EventOptimizeCompleted, out.Run)
	return out
}

// OptimizeFile optimizes the document at path and rewrites it in place
// when the output differs. Unparseable files are left untouched.
func (s *OptimizeService) OptimizeFile(ctx context.Context, source domain.RunSource, path string) (Outcome, error) {
	if !s.files.TryLock(path) {
		return Outcome{}, fmt.Errorf("%s: %w", path, ErrBusy)
	}
	defer s.files.Unlock(path)

	info, err := os.Stat(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("stat document: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("read document: %w", err)
	}

	out := s.Optimize(ctx, source, path, string(data))
	if out.Err != nil || !out.Changed {
		return out, nil
	}

	if err := writeFileAtomic(path, []byte(out.Text), info.Mode().Perm()); err != nil {
		return out, fmt.Errorf("write document: %w", err)
	}
	s.logger.Info("optimize: rewrote document", "path", path, "connectors", out.Report.Rewritten())
	s.emitter.Emit(ctx, EventFileRewritten, map[string]string{"path": path, "runId": out.Run.ID})
	return out, nil
}

// WaitRunning blocks until in-flight file rewrites finish or ctx is cancelled.
func (s *OptimizeService) WaitRunning(ctx context.Context) {
	s.files.WaitAll(ctx)
}

// writeFileAtomic writes through a temp file in the same directory so
// readers never see a half-written document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
