// Package app implements the edgealign command line.
//
// Commands share one App per invocation: it carries the loaded
// configuration, the logger and a lazily opened run journal.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"edgealign/internal/config"
	"edgealign/internal/domain"
	"edgealign/internal/secret"
	"edgealign/internal/service"
	"edgealign/internal/storage"
)

// App holds the state shared by every command of one invocation.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	secrets secret.SecretStore

	runs domain.RunStore
}

func newApp(cfg *config.Config, logger *log.Logger, secrets secret.SecretStore) *App {
	return &App{cfg: cfg, logger: logger, secrets: secrets}
}

// Journal opens the configured run journal on first use. A journal that
// cannot be opened is logged and replaced by a no-op store so optimizing
// still works.
func (a *App) Journal(ctx context.Context) domain.RunStore {
	if a.runs != nil {
		return a.runs
	}
	runs, err := a.openJournal(ctx)
	if err != nil {
		a.logger.Warn("journal: disabled", "driver", a.cfg.Journal.Driver, "err", err)
		runs = storage.NopStore{}
	}
	a.runs = runs
	return runs
}

// JournalStrict is Journal without the fallback, for commands that only
// make sense with a working journal.
func (a *App) JournalStrict(ctx context.Context) (domain.RunStore, error) {
	if a.runs != nil {
		return a.runs, nil
	}
	runs, err := a.openJournal(ctx)
	if err != nil {
		return nil, err
	}
	a.runs = runs
	return runs, nil
}

func (a *App) openJournal(ctx context.Context) (domain.RunStore, error) {
	var password string
	if a.cfg.Journal.PasswordKey != "" {
		pw, err := a.secrets.Get(a.cfg.Journal.PasswordKey)
		if err != nil {
			return nil, fmt.Errorf("read journal password: %w", err)
		}
		password = string(pw)
	}
	return storage.Open(ctx, a.cfg.Journal.JournalConnection, password, a.logger)
}

// OptimizeService builds the optimizer service over the journal.
func (a *App) OptimizeService(ctx context.Context) *service.OptimizeService {
	return service.NewOptimizeService(a.Journal(ctx), service.LogEmitter{Logger: a.logger}, a.logger)
}

// Close releases the journal.
func (a *App) Close() {
	if a.runs == nil {
		return
	}
	if err := a.runs.Close(); err != nil {
		a.logger.Warn("journal: close failed", "err", err)
	}
	a.runs = nil
}
