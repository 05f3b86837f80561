// Package config provides unified configuration loading for lifesim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/rule"
)

// Config contains all lifesim configuration settings.
type Config struct {
	// Grid contains the board dimensions.
	Grid GridConfig `json:"grid" yaml:"grid"`

	// Simulation contains the seed pattern and evolution settings.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Report controls per-generation progress output.
	Report ReportConfig `json:"report" yaml:"report"`

	// Render controls the text snapshots printed before and after a run.
	Render RenderConfig `json:"render" yaml:"render"`

	// Store controls the SQLite run history.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// GridConfig sets the square board size.
type GridConfig struct {
	// Size is the side length N of the N x N grid.
	Size int `json:"size" yaml:"size"`
}

// SimulationConfig selects what to evolve and how.
type SimulationConfig struct {
	// Pattern is a built-in pattern name or a path to a .cells/.yaml file.
	Pattern string `json:"pattern" yaml:"pattern"`

	// Row and Col are the top-left placement offset of the pattern.
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`

	// Center places the pattern in the middle of the grid, ignoring Row/Col.
	Center bool `json:"center" yaml:"center"`

	// Iterations is the generation budget.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Workers is the number of goroutines per generation (0 = GOMAXPROCS).
	Workers int `json:"workers" yaml:"workers"`

	// Strategy is "bbox" (scan the live box plus one cell) or "full".
	Strategy string `json:"strategy" yaml:"strategy"`

	// Rule is the birth/survival rule in B/S notation.
	Rule string `json:"rule" yaml:"rule"`
}

// ReportConfig configures progress output.
type ReportConfig struct {
	// Every prints one progress line per Every generations (1 = all).
	Every int `json:"every" yaml:"every"`

	// Quiet suppresses per-generation lines; the summary is still printed.
	Quiet bool `json:"quiet" yaml:"quiet"`
}

// RenderConfig configures text snapshots around the placed pattern.
type RenderConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Margin  int    `json:"margin" yaml:"margin"`
	Alive   string `json:"alive" yaml:"alive"`
	Dead    string `json:"dead" yaml:"dead"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	// Enabled records every run in <Dir>/lifesim.db.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir holds the database. Empty means ~/.lifesim.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// LoggingConfig configures lifesim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the JSONL generation trace in the store directory.
	// "trace" additionally logs every scan region to stderr.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with the reference 3000x3000 grower run.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Size: 3000,
		},
		Simulation: SimulationConfig{
			Pattern:    "grower",
			Row:        1500,
			Col:        1500,
			Iterations: 100,
			Workers:    0,
			Strategy:   "bbox",
			Rule:       rule.Conway.String(),
		},
		Report: ReportConfig{
			Every: 1,
		},
		Render: RenderConfig{
			Enabled: false,
			Margin:  50,
			Alive:   "#",
			Dead:    " ",
		},
		Store: StoreConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultDir returns ~/.lifesim.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lifesim"), nil
}

// Path returns the default config file location, ~/.lifesim/config.yaml.
func Path() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.lifesim/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadPath is Load with an explicit config file, which must exist.
func LoadPath(path string) (*Config, error) {
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Dir = expandEnvVars(config.Store.Dir)
	config.Simulation.Pattern = expandEnvVars(config.Simulation.Pattern)

	return config, nil
}

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid. It does not check that
// the pattern fits the grid; placement reports that itself.
func (c *Config) Validate() error {
	if c.Grid.Size <= 0 || c.Grid.Size > grid.MaxSize {
		return fmt.Errorf("grid.size must be between 1 and %d, got %d", grid.MaxSize, c.Grid.Size)
	}

	if c.Simulation.Pattern == "" {
		return fmt.Errorf("simulation.pattern must be set")
	}

	if c.Simulation.Iterations < 0 {
		return fmt.Errorf("simulation.iterations must be non-negative, got %d", c.Simulation.Iterations)
	}

	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must be non-negative, got %d", c.Simulation.Workers)
	}

	if _, err := engine.ParseStrategy(c.Simulation.Strategy); err != nil {
		return fmt.Errorf("simulation.strategy: %w", err)
	}

	if c.Simulation.Rule != "" {
		if _, err := rule.Parse(c.Simulation.Rule); err != nil {
			return fmt.Errorf("simulation.rule: %w", err)
		}
	}

	if c.Report.Every < 0 {
		return fmt.Errorf("report.every must be non-negative, got %d", c.Report.Every)
	}

	if c.Render.Margin < 0 {
		return fmt.Errorf("render.margin must be non-negative, got %d", c.Render.Margin)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// StoreDir returns Store.Dir or the default directory.
func (c *Config) StoreDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	return DefaultDir()
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LIFESIM_GRID_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Grid.Size = n
		}
	}

	if v := os.Getenv("LIFESIM_PATTERN"); v != "" {
		config.Simulation.Pattern = v
	}

	if v := os.Getenv("LIFESIM_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Iterations = n
		}
	}

	if v := os.Getenv("LIFESIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
		}
	}

	if v := os.Getenv("LIFESIM_STRATEGY"); v != "" {
		config.Simulation.Strategy = v
	}

	if v := os.Getenv("LIFESIM_RULE"); v != "" {
		config.Simulation.Rule = v
	}

	if v := os.Getenv("LIFESIM_STORE"); v != "" {
		config.Store.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("LIFESIM_STORE_DIR"); v != "" {
		config.Store.Dir = v
	}

	if v := os.Getenv("LIFESIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
