// Package main provides the litesync CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gauthierbraillon/litesync/internal/checkpoint"
	"github.com/gauthierbraillon/litesync/internal/config"
	"github.com/gauthierbraillon/litesync/internal/display"
	"github.com/gauthierbraillon/litesync/internal/feed"
	"github.com/gauthierbraillon/litesync/internal/logging"
	"github.com/gauthierbraillon/litesync/internal/publisher"
	"github.com/gauthierbraillon/litesync/internal/syncer"
	"github.com/gauthierbraillon/litesync/pkg/browser"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return syncer.ExitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return syncer.ExitFailed
}

// exitError carries a pass outcome out of cobra as a process exit status.
type exitError struct {
	code    int
	outcome syncer.Outcome
}

func (e *exitError) Error() string {
	return fmt.Sprintf("sync pass ended with outcome %q", e.outcome)
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by `go install`.
func resolveVersion(ldflagsVersion string, info *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

func currentVersion() string {
	info, _ := debug.ReadBuildInfo()
	return resolveVersion(version, info)
}

// newRootCmd creates the root command. Running it without a subcommand
// performs one sync pass.
func newRootCmd() *cobra.Command {
	var configPath string
	var dryRun bool

	rootCmd := &cobra.Command{
		Use:   "litesync",
		Short: "Publish new feed entries to the ledger",
		Long: "litesync catches the ledger up with a content feed: every entry published since the last " +
			"confirmed note is posted, oldest first, and progress is saved after each pass.",
		Version:      currentVersion(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, configPath, dryRun)
		},
	}

	rootCmd.SetVersionTemplate("litesync version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: <config dir>/config.yaml)")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Log notes instead of publishing them; the checkpoint is not saved")

	rootCmd.AddCommand(newStatusCmd(&configPath))
	rootCmd.AddCommand(newConfigCmd(&configPath))

	return rootCmd
}

func runSync(cmd *cobra.Command, configPath string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dryRun {
		cfg.Publisher.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := logging.Setup(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	store, err := checkpoint.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	defer func() { _ = store.Close() }()

	source := feed.NewClient(cfg.Feed.URL,
		feed.WithTimeout(cfg.Feed.Timeout),
		feed.WithUserAgent("litesync/"+currentVersion()),
	)

	var pub publisher.Publisher
	if cfg.Publisher.DryRun {
		pub = publisher.NewDryRun(logger)
	} else {
		pub = publisher.NewClient(cfg.Publisher.Endpoint, cfg.Publisher.Token, cfg.Publisher.Character,
			publisher.WithTimeout(cfg.Publisher.Timeout),
		)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := syncer.New(source, store, pub, logger, syncer.Options{DryRun: cfg.Publisher.DryRun})
	report := s.Run(ctx)

	fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatReport(report))

	if code := report.ExitCode(); code != syncer.ExitOK {
		return &exitError{code: code, outcome: report.Outcome}
	}
	return nil
}

// newStatusCmd creates the status subcommand.
func newStatusCmd(configPath *string) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved checkpoint",
		Long:  "Show when the last confirmed note was published and its ledger reference.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			store, err := checkpoint.Open(cfg.Store.Backend, cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("failed to open checkpoint store: %w", err)
			}
			defer func() { _ = store.Close() }()

			cp, err := store.Load(context.Background())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatCheckpoint(cp, cfg.Publisher.ExplorerURL))

			if open {
				link := display.ReferenceURL(cfg.Publisher.ExplorerURL, cp.LastReference)
				if link == "" {
					return errors.New("nothing to open: set publisher.explorer_url and sync at least one note")
				}
				if err := browser.Open(link); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Please visit:\n%s\n", link)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&open, "open", "o", false, "Open the last reference in the ledger explorer")

	return cmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		Long:  "Print the configuration litesync would use, after defaults, config file, .env and environment.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "# Config directory: %s\n", config.Dir())
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return nil
		},
	}

	return cmd
}
