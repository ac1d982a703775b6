package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lambeaux/steadfast/internal/engine"
	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/karaf"
	"github.com/Lambeaux/steadfast/internal/placeholder"
	"github.com/Lambeaux/steadfast/internal/store"
)

// InstallOptions holds flags for the install command.
type InstallOptions struct {
	*RootOptions
	Workspace string
	KarafHome string
	NoHistory bool

	// Runner overrides the karaf shell runner (for testing).
	Runner karaf.Runner
	// SessionIDs overrides the UUIDv7 session id generator (for testing).
	SessionIDs engine.SessionIDGenerator
}

// InstallResult is the install command's output.
type InstallResult struct {
	SessionID string   `json:"session_id"`
	Feature   string   `json:"feature"`
	Workspace string   `json:"workspace"`
	Succeeded bool     `json:"succeeded"`
	Attempts  int      `json:"attempts"`
	Exports   []string `json:"exports"`
}

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	return newInstallCommand(&InstallOptions{RootOptions: rootOpts})
}

func newInstallCommand(opts *InstallOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <feature>",
		Short: "Try-install a feature, providing missing packages",
		Long: `Install a feature into a running Karaf container.

The feature id is passed to feature:install as given, e.g. "my-feature" or
"my-feature/1.2.3". Every missing package the container reports is added to
the placeholder bundle until the feature installs, a package is reported
again after it was provided, or a lifecycle step stalls.

Sessions are recorded to the history database unless --no-history is set.

Exit codes:
  0 - Feature installed
  1 - Resolve session failed
  2 - Command error (no karaf home, unwritable workspace, etc.)

Examples:
  tryinstall install my-feature/1.2.3
  tryinstall install my-feature --karaf-home /opt/karaf
  tryinstall install my-feature --workspace /tmp/tryinstall --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "placeholder workspace directory (default: <karaf-home>/data/tmp/tryinstall)")
	cmd.Flags().StringVar(&opts.KarafHome, "karaf-home", "", "Karaf installation directory (default: $KARAF_HOME)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record the session")

	return cmd
}

func runInstall(opts *InstallOptions, feature string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.KarafHome != "" {
		cfg.Karaf.Home = opts.KarafHome
	}
	if opts.Workspace != "" {
		cfg.Workspace = opts.Workspace
	}
	if opts.NoHistory {
		cfg.History.Disabled = true
	}

	logger := opts.newLogger(cmd.ErrOrStderr())

	clientPath, err := cfg.ClientPath()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to locate karaf client", err)
	}
	client, err := karaf.New(karaf.Options{
		Client:   clientPath,
		Host:     cfg.Karaf.Host,
		Port:     cfg.Karaf.Port,
		User:     cfg.Karaf.User,
		Password: cfg.Karaf.Password,
		KeyFile:  cfg.Karaf.KeyFile,
		Timeout:  cfg.Karaf.Timeout,
		Runner:   opts.Runner,
		Logger:   logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create karaf client", err)
	}

	workspace, err := cfg.WorkspaceDir()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to locate workspace", err)
	}
	manager, err := placeholder.New(placeholder.Options{
		Dir:     workspace,
		Base:    placeholder.DefaultBase(cfg.BaseOptions()),
		Runtime: client,
		Wait:    cfg.WaitPolicy(),
		Logger:  logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to prepare placeholder", err)
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithWorkspace(workspace),
	}
	if opts.SessionIDs != nil {
		engineOpts = append(engineOpts, engine.WithSessionIDs(opts.SessionIDs))
	}

	historyPath, err := cfg.HistoryPath()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to locate history database", err)
	}
	if historyPath != "" {
		st, err := openHistory(logger, historyPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing history database", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithRecorder(st))
	}

	eng := engine.New(client, manager, engineOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, runErr := eng.Run(ctx, feature)
	result := newInstallResult(session)

	formatter := opts.formatter(cmd)
	if runErr != nil {
		code := string(session.ErrorCode)
		if code == "" {
			code = "INTERRUPTED"
		}
		if opts.Format == "json" {
			if err := formatter.SessionError(session.ID, code, runErr.Error(), result); err != nil {
				return err
			}
		} else {
			writeSessionText(cmd.OutOrStdout(), session)
		}
		if session.ErrorCode == ir.ErrCodeWorkspaceFailure {
			return WrapExitError(ExitCommandError, "workspace unusable", runErr)
		}
		return WrapExitError(ExitFailure, "resolve session failed", runErr)
	}

	if opts.Format == "json" {
		return formatter.SessionSuccess(session.ID, result)
	}
	writeSessionText(cmd.OutOrStdout(), session)
	return nil
}

// openHistory opens the history database, creating its directory.
func openHistory(logger *slog.Logger, path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	logger.Debug("opening history database", "path", path)
	return store.Open(path)
}

func newInstallResult(s *ir.Session) InstallResult {
	return InstallResult{
		SessionID: s.ID,
		Feature:   s.Feature,
		Workspace: s.Workspace,
		Succeeded: s.Succeeded,
		Attempts:  len(s.Attempts),
		Exports:   capabilityStrings(s.Exports),
	}
}

func capabilityStrings(caps []ir.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = c.String()
	}
	return out
}

// writeSessionText renders a session for humans.
func writeSessionText(w io.Writer, s *ir.Session) {
	if s.Succeeded {
		fmt.Fprintf(w, "✓ %s installed\n", s.Feature)
	} else {
		fmt.Fprintf(w, "✗ %s not installed\n", s.Feature)
	}
	fmt.Fprintf(w, "Session: %s\n", s.ID)
	if s.Workspace != "" {
		fmt.Fprintf(w, "Workspace: %s\n", s.Workspace)
	}

	fmt.Fprintf(w, "\nAttempts (%d):\n", len(s.Attempts))
	for _, a := range s.Attempts {
		line := fmt.Sprintf("  [%d] %s", a.Seq, a.Result)
		if a.Capability != nil {
			line += " " + a.Capability.String()
		}
		fmt.Fprintln(w, line)
	}

	if len(s.Exports) > 0 {
		fmt.Fprintf(w, "\nProvided packages (%d):\n", len(s.Exports))
		for _, c := range s.Exports {
			fmt.Fprintf(w, "  %s\n", c.Export())
		}
	}

	if !s.Succeeded && s.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", strings.TrimSpace(s.Error))
	}
}
