package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd(app appFunc) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent optimization runs from the journal",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, args []string, a *App) error {
			runs, err := a.JournalStrict(cmd.Context())
			if err != nil {
				return err
			}
			list, err := runs.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tSOURCE\tSTATUS\tREWRITTEN\tCHANGED\tPATH")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%t\t%s\n",
					shortID(r.ID),
					r.CreatedAt.Local().Format(time.DateTime),
					r.Source,
					r.Status,
					r.Rewritten, r.Connectors,
					r.Changed,
					r.Path,
				)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print runs as JSON")

	cmd.AddCommand(newRunsPruneCmd(app))
	cmd.AddCommand(newRunsPasswordCmd(app))
	return cmd
}

func newRunsPruneCmd(app appFunc) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than the retention period",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, args []string, a *App) error {
			if !cmd.Flags().Changed("older-than") {
				olderThan = a.cfg.Journal.Retention
			}
			if olderThan <= 0 {
				return fmt.Errorf("nothing to prune: retention is disabled")
			}
			runs, err := a.JournalStrict(cmd.Context())
			if err != nil {
				return err
			}
			n, err := runs.PruneRuns(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("prune runs: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d runs\n", n)
			return nil
		}),
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age cutoff (default journal.retention)")
	return cmd
}

func newRunsPasswordCmd(app appFunc) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Store the journal database password in the secret store",
		Long: `Reads the password from the first line of stdin and stores it under
journal.password_key. Use --clear to remove it.`,
		Args: cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, args []string, a *App) error {
			key := a.cfg.Journal.PasswordKey
			if key == "" {
				return fmt.Errorf("journal.password_key is empty")
			}
			if remove {
				if err := a.secrets.Delete(key); err != nil {
					return fmt.Errorf("delete password: %w", err)
				}
				a.logger.Info("journal: password removed", "key", key)
				return nil
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return fmt.Errorf("empty password")
			}
			if err := a.secrets.Set(key, []byte(password)); err != nil {
				return fmt.Errorf("store password: %w", err)
			}
			a.logger.Info("journal: password stored", "key", key)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&remove, "clear", false, "remove the stored password")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
