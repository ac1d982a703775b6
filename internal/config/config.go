// Package config loads tryinstall.yaml.
//
// A config file is decoded with yaml.v3, checked against an embedded CUE
// schema (unknown keys and out-of-range values are rejected with the offending
// path), then layered over Default. Environment lookups such as KARAF_HOME
// happen in the CLI, which passes the result in through Config.Karaf.Home.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/Lambeaux/steadfast/internal/lifecycle"
	"github.com/Lambeaux/steadfast/internal/placeholder"
)

//go:embed schema.cue
var schemaCUE string

// FileName is the config file looked up when --config is not given.
const FileName = "tryinstall.yaml"

// Config is the full tool configuration.
type Config struct {
	// Workspace is the placeholder workspace directory.
	// Default: <karaf.home>/data/tmp/tryinstall.
	Workspace string         `yaml:"workspace"`
	Karaf     KarafConfig    `yaml:"karaf"`
	Manifest  ManifestConfig `yaml:"manifest"`
	Wait      WaitConfig     `yaml:"wait"`
	History   HistoryConfig  `yaml:"history"`
}

// KarafConfig locates the container and its remote shell.
type KarafConfig struct {
	Home string `yaml:"home"`
	// Client is the shell client script. Default: <home>/bin/client.
	Client   string        `yaml:"client"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	KeyFile  string        `yaml:"key_file"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ManifestConfig overrides the placeholder's fixed manifest attributes.
type ManifestConfig struct {
	BuildJDK     string `yaml:"build_jdk"`
	BuiltBy      string `yaml:"built_by"`
	Name         string `yaml:"name"`
	SymbolicName string `yaml:"symbolic_name"`
	Description  string `yaml:"description"`
}

// WaitConfig bounds every lifecycle wait.
type WaitConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// HistoryConfig locates the session history database.
type HistoryConfig struct {
	// Path defaults to <user cache dir>/tryinstall/history.db.
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	base := placeholder.DefaultBaseOptions()
	return &Config{
		Karaf: KarafConfig{
			Host:     "localhost",
			Port:     8101,
			User:     "karaf",
			Password: "karaf",
			Timeout:  2 * time.Minute,
		},
		Manifest: ManifestConfig{
			BuildJDK:     base.BuildJDK,
			BuiltBy:      base.BuiltBy,
			Name:         base.Name,
			SymbolicName: base.SymbolicName,
			Description:  base.Description,
		},
		Wait: WaitConfig{
			Interval:    lifecycle.DefaultInterval,
			MaxAttempts: lifecycle.DefaultMaxAttempts,
		},
	}
}

// ValidationError lists every schema violation in a config file.
type ValidationError struct {
	Path   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s:\n%s", e.Path, e.Detail)
}

// Load reads path over Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse validates data and decodes it into cfg, keeping cfg's values for
// fields data leaves out.
func Parse(data []byte, cfg *Config) error {
	if err := Validate(data); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate checks data against the embedded schema.
func Validate(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &ValidationError{Detail: err.Error()}
	}
	if raw == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Detail: cueerrors.Details(err, nil)}
	}
	return nil
}

// Find returns FileName in dir if it exists, or "".
func Find(dir string) string {
	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// WorkspaceDir returns the placeholder workspace, falling back to the
// container's temp area.
func (c *Config) WorkspaceDir() (string, error) {
	if c.Workspace != "" {
		return c.Workspace, nil
	}
	if c.Karaf.Home == "" {
		return "", errors.New("no workspace configured and karaf home is unknown (set KARAF_HOME or workspace)")
	}
	return filepath.Join(c.Karaf.Home, "data", "tmp", placeholder.DirName), nil
}

// ClientPath returns the shell client script.
func (c *Config) ClientPath() (string, error) {
	if c.Karaf.Client != "" {
		return c.Karaf.Client, nil
	}
	if c.Karaf.Home == "" {
		return "", errors.New("no karaf client configured and karaf home is unknown (set KARAF_HOME or karaf.client)")
	}
	return filepath.Join(c.Karaf.Home, "bin", "client"), nil
}

// HistoryPath returns the history database path, or "" when history is off.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Disabled {
		return "", nil
	}
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate history database: %w", err)
	}
	return filepath.Join(dir, "tryinstall", "history.db"), nil
}

// WaitPolicy returns the lifecycle wait policy.
func (c *Config) WaitPolicy() lifecycle.Policy {
	return lifecycle.Policy{
		Interval:    c.Wait.Interval,
		MaxAttempts: c.Wait.MaxAttempts,
	}
}

// BaseOptions returns the placeholder manifest's fixed attributes.
func (c *Config) BaseOptions() placeholder.BaseOptions {
	return placeholder.BaseOptions{
		BuildJDK:     c.Manifest.BuildJDK,
		BuiltBy:      c.Manifest.BuiltBy,
		Name:         c.Manifest.Name,
		SymbolicName: c.Manifest.SymbolicName,
		Description:  c.Manifest.Description,
	}
}
