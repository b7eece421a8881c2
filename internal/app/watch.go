package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"edgealign/internal/service"
)

// shutdownGrace bounds how long in-flight rewrites may finish on exit.
const shutdownGrace = 5 * time.Second

func newWatchCmd(app appFunc) *cobra.Command {
	var schedule string
	var sweep bool

	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Keep the diagrams under one or more directories aligned",
		Long: `Watches the given directories (recursively) and re-aligns diagram files
whenever they are written. A cron schedule adds periodic full sweeps, and
old journal entries are pruned on the configured prune schedule.`,
		Args: cobra.MinimumNArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string, a *App) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := a.cfg.Watch
			if cmd.Flags().Changed("schedule") {
				cfg.Schedule = schedule
			}

			runs := a.Journal(ctx)
			emitter := service.LogEmitter{Logger: logger}
			optimize := service.NewOptimizeService(runs, emitter, logger)
			svc := service.NewWatchService(optimize, runs, emitter, logger, cfg, a.cfg.Journal.Retention)

			if sweep {
				if _, err := svc.Sweep(ctx, args); err != nil {
					return err
				}
			}
			if err := svc.Start(ctx, args); err != nil {
				return err
			}

			<-ctx.Done()
			logger.Info("watch: shutting down")
			svc.Stop()
			waitCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			svc.WaitRunning(waitCtx)
			return nil
		}),
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", `cron spec for full sweeps, e.g. "@hourly" (overrides watch.schedule)`)
	cmd.Flags().BoolVar(&sweep, "sweep", false, "align every matching file once before watching")
	return cmd
}
