package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lambeaux/steadfast/internal/lifecycle"
	"github.com/Lambeaux/steadfast/internal/placeholder"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, lifecycle.DefaultInterval, cfg.Wait.Interval)
	assert.Equal(t, lifecycle.DefaultMaxAttempts, cfg.Wait.MaxAttempts)
	assert.Equal(t, placeholder.DefaultBaseOptions(), cfg.BaseOptions())
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := writeConfig(t, `
workspace: /srv/tryinstall
karaf:
  home: /opt/karaf
  port: 8102
  key_file: /home/karaf/.ssh/id_rsa
manifest:
  build_jdk: "17.0.9"
wait:
  interval: 250ms
  max_attempts: 40
history:
  disabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/tryinstall", cfg.Workspace)
	assert.Equal(t, "/opt/karaf", cfg.Karaf.Home)
	assert.Equal(t, 8102, cfg.Karaf.Port)
	assert.Equal(t, "localhost", cfg.Karaf.Host)
	assert.Equal(t, "karaf", cfg.Karaf.User)
	assert.Equal(t, "/home/karaf/.ssh/id_rsa", cfg.Karaf.KeyFile)
	assert.Equal(t, "17.0.9", cfg.Manifest.BuildJDK)
	assert.Equal(t, "dependency-provider", cfg.Manifest.SymbolicName)
	assert.Equal(t, 250*time.Millisecond, cfg.Wait.Interval)
	assert.Equal(t, 40, cfg.Wait.MaxAttempts)

	history, err := cfg.HistoryPath()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown key", "bogus: 1\n", "bogus"},
		{"nested unknown key", "karaf:\n  hostname: x\n", "hostname"},
		{"port out of range", "karaf:\n  port: 70000\n", "port"},
		{"zero attempts", "wait:\n  max_attempts: 0\n", "max_attempts"},
		{"bad duration", "wait:\n  interval: soon\n", "interval"},
		{"wrong type", "history:\n  disabled: \"yes\"\n", "disabled"},
		{"bad symbolic name", "manifest:\n  symbolic_name: \"has space\"\n", "symbolic_name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)

			_, err := Load(path)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, path, verr.Path)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateEmptyDocument(t *testing.T) {
	assert.NoError(t, Validate([]byte("")))
	assert.NoError(t, Validate([]byte("# only a comment\n")))
}

func TestValidateNonMapping(t *testing.T) {
	err := Validate([]byte("- a\n- b\n"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestWorkspaceDirFallsBackToKarafHome(t *testing.T) {
	cfg := Default()
	_, err := cfg.WorkspaceDir()
	assert.Error(t, err)

	cfg.Karaf.Home = "/opt/karaf"
	dir, err := cfg.WorkspaceDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/opt/karaf", "data", "tmp", "tryinstall"), dir)

	cfg.Workspace = "/elsewhere"
	dir, err = cfg.WorkspaceDir()
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", dir)
}

func TestClientPath(t *testing.T) {
	cfg := Default()
	_, err := cfg.ClientPath()
	assert.Error(t, err)

	cfg.Karaf.Home = "/opt/karaf"
	client, err := cfg.ClientPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/opt/karaf", "bin", "client"), client)
}

func TestWaitPolicy(t *testing.T) {
	cfg := Default()
	cfg.Wait.MaxAttempts = 5

	p := cfg.WaitPolicy()
	assert.Equal(t, lifecycle.DefaultInterval, p.Interval)
	assert.Equal(t, 5, p.MaxAttempts)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, FileName), Find(dir))
}
