package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/config"
	"github.com/gitsyncd/gitsyncd/internal/server/handlers/status"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

const startStopTimeout = 30 * time.Second

var errSyncFailed = errors.New("sync failed")

// Run executes the command line and exits with a non-zero status on error.
func Run() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the monitored file and synchronize on every change",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			// fx.App.Run exits with status 1 on startup failure and returns
			// after SIGINT or SIGTERM.
			newDaemon().Run()
		},
	}

	rootCmd := &cobra.Command{
		Use:   "gitsyncd",
		Short: "Keep a local working copy synchronized with its remote",
		Long: `gitsyncd watches a single file in a Git working copy. Whenever it changes,
local work is rebased onto the remote, committed and pushed. Rebase conflicts
are handed to the configured git merge tool.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if cfgFile != "" {
				_ = os.Setenv("CONFIG_PATH", cfgFile)
			}
		},
		Args: cobra.NoArgs,
		Run:  runCmd.Run,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(
		runCmd,
		newSyncCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single synchronization cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var engine *syncer.Engine
			app := newOneShot(&engine)

			startCtx, cancel := context.WithTimeout(cmd.Context(), startStopTimeout)
			defer cancel()
			if err := app.Start(startCtx); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}

			outcome := engine.SyncChanges(cmd.Context())
			printOutcome(cmd.OutOrStdout(), outcome)

			stopCtx, cancelStop := context.WithTimeout(context.Background(), startStopTimeout)
			defer cancelStop()
			if err := app.Stop(stopCtx); err != nil {
				return fmt.Errorf("failed to stop: %w", err)
			}

			if outcome.Failed() {
				return fmt.Errorf("%w: %s: %s", errSyncFailed, outcome.ErrorKind, outcome.Detail)
			}

			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(validator.New(validator.WithRequiredStructEnabled()))
			if err != nil {
				return err
			}

			var response status.StatusResponse
			code, _, errs := fiber.Get("http://" + cfg.HTTP.Address + "/api/v1/status").
				Timeout(5 * time.Second).
				Struct(&response)
			if len(errs) > 0 {
				return fmt.Errorf("failed to query daemon at %s: %w", cfg.HTTP.Address, errors.Join(errs...))
			}
			if code != fiber.StatusOK {
				return fmt.Errorf("daemon at %s answered with status %d", cfg.HTTP.Address, code)
			}

			printStatus(cmd.OutOrStdout(), response)

			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gitsyncd %s (release %d)\n", version, releaseID)
		},
	}
}

func printOutcome(w io.Writer, outcome syncer.Outcome) {
	switch outcome.Result {
	case syncer.ResultNoChanges:
		fmt.Fprintln(w, "no changes")
	case syncer.ResultSuccess, syncer.ResultConflictResolved:
		fmt.Fprintf(w, "%s: %s (%s)\n", outcome.Result, outcome.Message, shortHash(outcome.Commit))
	default:
		fmt.Fprintf(w, "%s: %s: %s\n", outcome.Result, outcome.ErrorKind, outcome.Detail)
	}
}

func printStatus(w io.Writer, response status.StatusResponse) {
	fmt.Fprintf(w, "phase:     %s\n", response.Phase)

	lastSync := "never"
	if response.LastSync != nil {
		lastSync = response.LastSync.Local().Format(time.DateTime)
	}
	fmt.Fprintf(w, "last sync: %s\n", lastSync)
	fmt.Fprintf(w, "pending:   %t\n", response.Pending)

	if outcome := response.LastOutcome; outcome != nil {
		fmt.Fprintf(w, "last run:  %s at %s", outcome.Result, outcome.FinishedAt.Local().Format(time.DateTime))
		if outcome.ErrorKind != "" {
			fmt.Fprintf(w, " (%s: %s)", outcome.ErrorKind, outcome.Detail)
		}
		fmt.Fprintln(w)
	}
}

func shortHash(hash string) string {
	const n = 7
	if len(hash) > n {
		return hash[:n]
	}
	return hash
}
