// Package karaf drives a running Apache Karaf container through its remote
// shell client script (bin/client).
//
// Client implements engine.Installer with feature:install and
// container.Runtime with the bundle:* commands. Every operation is one client
// invocation; the container itself is never embedded.
package karaf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// errorPrefix starts every failed shell command's output.
const errorPrefix = "Error executing command:"

// Runner runs the client script and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs the client as a child process.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Options configures a Client.
type Options struct {
	// Client is the path of bin/client. Required.
	Client   string
	Host     string
	Port     int
	User string
	// Password is passed to the client as "-p", so it is visible in process
	// listings. It is ignored when KeyFile is set.
	Password string
	// KeyFile is a private key the client authenticates with ("-k").
	KeyFile string
	// Timeout bounds each shell command. 0 means no limit.
	Timeout time.Duration
	// Runner overrides ExecRunner.
	Runner Runner
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

// ShellError is a shell command that ran and failed, or a client that could
// not run it.
type ShellError struct {
	Command string
	// Output is the shell's text with the error prefix removed.
	Output string
	Err    error
}

func (e *ShellError) Error() string {
	msg := fmt.Sprintf("karaf: %s failed", e.Command)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	if e.Err != nil {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

func (e *ShellError) Unwrap() error {
	return e.Err
}

// Client talks to one Karaf instance.
type Client struct {
	opts Options
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.Client == "" {
		return nil, errors.New("karaf: client script path is required")
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{opts: opts}, nil
}

// args renders the client's connection flags followed by the command.
func (c *Client) args(command string) []string {
	var args []string
	if c.opts.Host != "" {
		args = append(args, "-h", c.opts.Host)
	}
	if c.opts.Port != 0 {
		args = append(args, "-a", strconv.Itoa(c.opts.Port))
	}
	if c.opts.User != "" {
		args = append(args, "-u", c.opts.User)
	}
	switch {
	case c.opts.KeyFile != "":
		args = append(args, "-k", c.opts.KeyFile)
	case c.opts.Password != "":
		args = append(args, "-p", c.opts.Password)
	}
	return append(args, command)
}

// Execute runs one shell command and returns its trimmed output.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	c.opts.Logger.Debug("karaf shell", "command", command)
	out, err := c.opts.Runner.Run(ctx, c.opts.Client, c.args(command)...)
	text := strings.TrimSpace(string(out))

	if i := strings.Index(text, errorPrefix); i >= 0 {
		return "", &ShellError{Command: command, Output: strings.TrimSpace(text[i+len(errorPrefix):]), Err: err}
	}
	if err != nil {
		return "", &ShellError{Command: command, Output: text, Err: err}
	}
	return text, nil
}
