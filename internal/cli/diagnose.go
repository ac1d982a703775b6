package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lambeaux/steadfast/internal/diagnostic"
	"github.com/Lambeaux/steadfast/internal/ir"
)

// DiagnoseOptions holds flags for the diagnose command.
type DiagnoseOptions struct {
	*RootOptions
	All bool // list every missing package, not just the first
}

// DiagnoseResult is the diagnose command's output.
type DiagnoseResult struct {
	Capability *ir.Capability  `json:"capability,omitempty"`
	All        []ir.Capability `json:"all,omitempty"`
}

// NewDiagnoseCommand creates the diagnose command.
func NewDiagnoseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiagnoseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diagnose [file]",
		Short: "Extract the missing package from a failure message",
		Long: `Read a feature:install failure message and print the package the
resolve loop would provide next.

The message is read from file, or from stdin when file is "-" or omitted.

Exit codes:
  0 - A missing package was found
  1 - The message names no missing package
  2 - Command error (unreadable file)

Examples:
  tryinstall diagnose failure.txt
  tryinstall diagnose --all < failure.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runDiagnose(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "list every missing package in the message")

	return cmd
}

func runDiagnose(opts *DiagnoseOptions, path string, cmd *cobra.Command) error {
	message, err := readMessage(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read failure message", err)
	}

	formatter := opts.formatter(cmd)
	result := DiagnoseResult{}
	if opts.All {
		result.All = diagnostic.ExtractAll(message)
	}

	c, err := diagnostic.Extract(message)
	if err != nil {
		if err := formatter.Error(string(ir.CodeOf(err)), err.Error(), nil); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "no missing package found", err)
	}
	result.Capability = &c

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Package: %s\n", c.Package)
	fmt.Fprintf(w, "Version: %s\n", c.MinVersion)
	fmt.Fprintf(w, "Export:  %s\n", c.Export())
	if opts.All {
		fmt.Fprintf(w, "\nAll missing packages (%d):\n", len(result.All))
		for _, other := range result.All {
			fmt.Fprintf(w, "  %s\n", other)
		}
	}
	return nil
}

// readMessage reads path, or r when path is "-".
func readMessage(path string, r io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
