package app

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"edgealign/internal/config"
	"edgealign/internal/secret"
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// Execute runs the edgealign CLI with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand(secret.Default()).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. secrets resolves the journal
// password.
func NewRootCommand(secrets secret.SecretStore) *cobra.Command {
	var (
		verbose    bool
		configPath string
		a          *App
	)

	root := &cobra.Command{
		Use:   "edgealign",
		Short: "Re-anchor diagram connectors on the edges of the shapes they join",
		Long: `edgealign rewrites the arrows and lines of a JSON diagram so each one
runs from the midpoint of an edge of its start shape to the midpoint of an
edge of its end shape, choosing the edges that face each other.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a = newApp(cfg, logger, secrets)
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/edgealign/config.toml)")

	current := appFunc(func() *App { return a })
	root.AddCommand(newOptimizeCmd(current))
	root.AddCommand(newWatchCmd(current))
	root.AddCommand(newMCPCmd(current))
	root.AddCommand(newRunsCmd(current))

	return root
}

// appFunc yields the App built by the root command's pre-run hook.
type appFunc func() *App

// run adapts fn to a cobra RunE that closes the App when fn returns.
func (f appFunc) run(fn func(cmd *cobra.Command, args []string, a *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := f()
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// readInput reads the document named by arg, with "-" or no argument
// meaning stdin.
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return "", string(data), err
	}
	data, err := os.ReadFile(args[0])
	return args[0], string(data), err
}
