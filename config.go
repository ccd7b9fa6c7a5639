package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lama/logging"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	REPL    REPLConfig    `json:"repl" yaml:"repl"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Units   UnitsConfig   `json:"units" yaml:"units"`
}

// EngineConfig contains execution engine configuration
type EngineConfig struct {
	EntryFunction     string `json:"entry_function" yaml:"entry_function"`
	TraceStatements   bool   `json:"trace_statements" yaml:"trace_statements"`
	MaxBackgroundJobs int    `json:"max_background_jobs" yaml:"max_background_jobs"`
}

// REPLConfig contains REPL configuration
type REPLConfig struct {
	Prompt      string `json:"prompt" yaml:"prompt"`
	HistorySize int    `json:"history_size" yaml:"history_size"`
	HistoryFile string `json:"history_file" yaml:"history_file"`
	ShowWelcome bool   `json:"show_welcome" yaml:"show_welcome"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// UnitsConfig controls how unit documents are loaded
type UnitsConfig struct {
	ValidateSchema bool `json:"validate_schema" yaml:"validate_schema"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			EntryFunction:     "main",
			TraceStatements:   false,
			MaxBackgroundJobs: 4,
		},
		REPL: REPLConfig{
			Prompt:      "> ",
			HistorySize: 1000,
			HistoryFile: "/tmp/lama_history",
			ShowWelcome: true,
		},
		Logging: LoggingConfig{
			Level:  "warning",
			Format: "text",
		},
		Units: UnitsConfig{
			ValidateSchema: true,
		},
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	path = expandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %v", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %v", err)
		}
	default:
		// Try YAML as default
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.REPL.HistoryFile = expandHome(config.REPL.HistoryFile)
	config.Logging.File = expandHome(config.Logging.File)
	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	path = expandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON config: %v", err)
		}
	default:
		data, err = yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML config: %v", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}
	return nil
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// NewLogger builds the process logger described by the logging section
func (c *Config) NewLogger(verbose bool) (logging.Logger, error) {
	formatter, err := logging.NewFormatter(c.Logging.Format)
	if err != nil {
		return nil, err
	}

	var writer logging.Writer = logging.NewConsoleWriter()
	if c.Logging.File != "" {
		fileWriter, err := logging.NewFileWriter(c.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %v", err)
		}
		writer = logging.NewMultiWriter(writer, fileWriter)
	}

	config := logging.LoggerConfig{
		Formatters: []logging.Formatter{formatter},
		Writers:    []logging.Writer{writer},
		CallerSkip: 2,
	}
	config.ApplyLogLevel(c.Logging.Level)
	if verbose {
		config.Level = logging.LevelDebug
	}
	return logging.NewDefaultLoggerWithConfig(config), nil
}
