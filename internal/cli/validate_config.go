package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lambeaux/steadfast/internal/config"
)

// ConfigReport is the validate-config output.
type ConfigReport struct {
	Path      string `json:"path,omitempty"`
	Valid     bool   `json:"valid"`
	KarafHome string `json:"karaf_home,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Client    string `json:"client,omitempty"`
	History   string `json:"history,omitempty"`
}

// NewValidateConfigCommand creates the validate-config command.
func NewValidateConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-config [path]",
		Short: "Check a " + config.FileName + " against the config schema",
		Long: `Validate a config file and print the settings install would use.

Without a path, the file named by --config is checked, then ./` + config.FileName + `.

Exit codes:
  0 - Config valid
  1 - Config invalid
  2 - Command error (file not found)

Examples:
  tryinstall validate-config
  tryinstall validate-config ./ci/` + config.FileName + ` --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidateConfig(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidateConfig(opts *RootOptions, path string, cmd *cobra.Command) error {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to get working directory", err)
		}
		if path = config.Find(wd); path == "" {
			return NewExitError(ExitCommandError, fmt.Sprintf("no %s in %s", config.FileName, wd))
		}
	}
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "config file not found", err)
	}

	formatter := opts.formatter(cmd)
	cfg, err := config.Load(path)
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		if err := formatter.Error("INVALID_CONFIG", verr.Error(), verr.Detail); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "config invalid", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.Karaf.Home == "" {
		cfg.Karaf.Home = opts.getenv("KARAF_HOME")
	}

	report := ConfigReport{
		Path:      path,
		Valid:     true,
		KarafHome: cfg.Karaf.Home,
	}
	// Paths that cannot be derived yet are left out of the report.
	report.Workspace, _ = cfg.WorkspaceDir()
	report.Client, _ = cfg.ClientPath()
	report.History, _ = cfg.HistoryPath()

	if opts.Format == "json" {
		return formatter.Success(report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s is valid\n", path)
	for _, row := range [][2]string{
		{"Karaf home", report.KarafHome},
		{"Client", report.Client},
		{"Workspace", report.Workspace},
		{"History", report.History},
	} {
		if row[1] != "" {
			fmt.Fprintf(w, "  %-11s %s\n", row[0]+":", row[1])
		}
	}
	return nil
}
