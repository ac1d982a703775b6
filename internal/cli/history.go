package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	Feature    string
	FailedOnly bool
	Limit      int
	SessionID  string // show one session in detail
}

// HistoryResult is the session list output.
type HistoryResult struct {
	Sessions []HistoryEntry `json:"sessions"`
	Total    int            `json:"total"`
}

// HistoryEntry summarizes one recorded session.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Feature   string    `json:"feature"`
	StartedAt time.Time `json:"started_at"`
	Succeeded bool      `json:"succeeded"`
	Outcome   string    `json:"outcome"`
	Exports   int       `json:"exports"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded resolve sessions",
		Long: `List resolve sessions recorded by install, newest first.

With --session, show one session in detail: every attempt with the package
it provided, and the final export declaration.

Examples:
  tryinstall history
  tryinstall history --feature my-feature/1.2.3 --failed
  tryinstall history --session 0190a5c2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to history database (default: from config)")
	cmd.Flags().StringVar(&opts.Feature, "feature", "", "only sessions for this feature id")
	cmd.Flags().BoolVar(&opts.FailedOnly, "failed", false, "only failed sessions")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum sessions to list (0 for all)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "show one session in detail")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := opts.Database
	if path == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		if path, err = cfg.HistoryPath(); err != nil {
			return WrapExitError(ExitCommandError, "failed to locate history database", err)
		}
		if path == "" {
			return NewExitError(ExitCommandError, "history is disabled in config")
		}
	}
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "history database not found", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.SessionID != "" {
		return showSession(ctx, opts, st, cmd)
	}

	sessions, err := st.ListSessions(ctx, store.ListOptions{
		Feature:    opts.Feature,
		FailedOnly: opts.FailedOnly,
		Limit:      opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	result := HistoryResult{
		Sessions: make([]HistoryEntry, 0, len(sessions)),
		Total:    len(sessions),
	}
	for i := range sessions {
		s := &sessions[i]
		result.Sessions = append(result.Sessions, HistoryEntry{
			ID:        s.ID,
			Feature:   s.Feature,
			StartedAt: s.StartedAt,
			Succeeded: s.Succeeded,
			Outcome:   sessionOutcome(s),
			Exports:   len(s.Exports),
		})
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	return outputHistoryText(cmd.OutOrStdout(), result)
}

func showSession(ctx context.Context, opts *HistoryOptions, st *store.Store, cmd *cobra.Command) error {
	s, err := st.ReadSession(ctx, opts.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		formatter := opts.formatter(cmd)
		if err := formatter.Error("NOT_FOUND", fmt.Sprintf("no session %s", opts.SessionID), nil); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "session not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).SessionSuccess(s.ID, s)
	}
	writeSessionText(cmd.OutOrStdout(), s)
	if s.Fingerprint != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", s.Fingerprint)
	}
	return nil
}

func outputHistoryText(w io.Writer, result HistoryResult) error {
	if result.Total == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return nil
	}

	fmt.Fprintf(w, "Sessions (%d):\n", result.Total)
	for _, e := range result.Sessions {
		status := "✓"
		if !e.Succeeded {
			status = "✗"
		}
		fmt.Fprintf(w, "  %s %s  %s  %s  %s (%d exports)\n",
			status, e.StartedAt.Format(time.RFC3339), e.ID, e.Feature, e.Outcome, e.Exports)
	}
	return nil
}

// sessionOutcome is "success" or the session's error code.
func sessionOutcome(s *ir.Session) string {
	if s.Succeeded {
		return "success"
	}
	if s.ErrorCode == "" {
		return "interrupted"
	}
	return string(s.ErrorCode)
}
