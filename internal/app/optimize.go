package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"edgealign/internal/domain"
	"edgealign/internal/service"
)

// ErrWouldChange is returned by optimize --check when the document is not
// aligned yet.
var ErrWouldChange = errors.New("document would change")

func newOptimizeCmd(app appFunc) *cobra.Command {
	var write, check, report bool

	cmd := &cobra.Command{
		Use:   "optimize [file|-]",
		Short: "Align the connectors of a diagram document",
		Long: `Reads a document containing a JSON array of diagram elements (from a file,
or stdin when the file is omitted or "-") and prints it with every bound
arrow and line re-anchored. Text that holds no parseable array is printed
back unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string, a *App) error {
			ctx := cmd.Context()
			svc := a.OptimizeService(ctx)

			var out service.Outcome
			if write {
				if len(args) == 0 || args[0] == "-" {
					return fmt.Errorf("--write needs a file argument")
				}
				var err error
				out, err = svc.OptimizeFile(ctx, domain.RunSourceCLI, args[0])
				if err != nil {
					return err
				}
			} else {
				path, text, err := readInput(cmd, args)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				out = svc.Optimize(ctx, domain.RunSourceCLI, path, text)
			}

			switch {
			case report:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out.Report); err != nil {
					return err
				}
			case !write && !check:
				if err := writeDocument(cmd.OutOrStdout(), out.Text); err != nil {
					return err
				}
			}

			if check && out.Changed {
				loggerFromContext(ctx).Info("optimize: not aligned", "connectors", out.Report.Rewritten())
				return ErrWouldChange
			}
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero if the document is not aligned")
	cmd.Flags().BoolVar(&report, "report", false, "print the change report as JSON instead of the document")
	return cmd
}

func writeDocument(w io.Writer, text string) error {
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	if !strings.HasSuffix(text, "\n") {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
