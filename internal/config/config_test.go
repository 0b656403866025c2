package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilot-dev/pilot/internal/config"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Planner.Provider)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Planner.APIKeyEnv)
	assert.Equal(t, "http://127.0.0.1:8765", cfg.Driver.BaseURL)
	assert.Equal(t, 10, cfg.Executor.MaxIterations)
	assert.Equal(t, 2, cfg.Executor.MaxConsecutiveErrors)
	assert.Equal(t, 20, cfg.Orchestrator.MaxSteps)
	assert.Equal(t, 6, cfg.Grid.Size)
	assert.True(t, cfg.Grid.Verify)
	assert.Zero(t, cfg.Confirm.TimeoutSeconds)
	assert.Empty(t, cfg.Confirm.RiskPatterns)
}

func TestLoad_OverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".pilot"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".pilot", "config"), []byte(`
[planner]
provider = "command"
command = "claude"
command_args = ["-p", "--output-format", "text"]

[executor]
max_iterations = 5

[confirm]
timeout_seconds = 30
risk_patterns = ["rm\\s+-rf"]
`), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "command", cfg.Planner.Provider)
	assert.Equal(t, "claude", cfg.Planner.Command)
	assert.Equal(t, []string{"-p", "--output-format", "text"}, cfg.Planner.CommandArgs)
	assert.Equal(t, 5, cfg.Executor.MaxIterations)
	assert.Equal(t, 2, cfg.Executor.MaxConsecutiveErrors, "unset keys keep defaults")
	assert.Equal(t, 30, cfg.Confirm.TimeoutSeconds)
	assert.Equal(t, []string{`rm\s+-rf`}, cfg.Confirm.RiskPatterns)
	assert.Equal(t, "http://127.0.0.1:8765", cfg.Driver.BaseURL)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".pilot"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".pilot", "config"), []byte("[planner\nbroken"), 0o644))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pilot.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[grid]
size = 8
verify = false
`), 0o644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Grid.Size)
	assert.False(t, cfg.Grid.Verify)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
