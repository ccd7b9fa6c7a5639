package main

import (
	"os"
	"path/filepath"
	"testing"

	"lama/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Engine.EntryFunction)
	assert.True(t, cfg.Units.ValidateSchema)
}

func TestLoadConfigFormats(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "lama.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
engine:
  entry_function: start
  trace_statements: true
units:
  validate_schema: false
`), 0o644))
	cfg, err := LoadConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "start", cfg.Engine.EntryFunction)
	assert.True(t, cfg.Engine.TraceStatements)
	assert.False(t, cfg.Units.ValidateSchema)
	assert.Equal(t, "> ", cfg.REPL.Prompt, "unset keys keep defaults")

	jsonPath := filepath.Join(dir, "lama.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"logging": {"level": "debug", "format": "json"}}`), 0o644))
	cfg, err = LoadConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{`), 0o644))
	_, err = LoadConfig(badPath)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	for _, name := range []string{"nested/lama.yaml", "nested/lama.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Engine.MaxBackgroundJobs = 9
			cfg.REPL.Prompt = "lama> "

			require.NoError(t, SaveConfig(cfg, path))
			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), expandHome("~/x/y"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	logger, err := cfg.NewLogger(false)
	require.NoError(t, err)
	assert.Equal(t, logging.LevelWarning, logger.GetLevel())

	logger, err = cfg.NewLogger(true)
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, logger.GetLevel())

	cfg.Logging.Format = "xml"
	_, err = cfg.NewLogger(false)
	assert.Error(t, err)
}
