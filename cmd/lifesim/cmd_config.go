package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/nvandessel/lifesim/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lifesim configuration",
		Long: `View and modify lifesim configuration settings.

Configuration is stored in ~/.lifesim/config.yaml unless --config names
another file. Environment variables (LIFESIM_*) override file values
when running, but are never written back by 'config set'.

Examples:
  lifesim config list                          # Show effective config
  lifesim config get simulation.strategy       # Get a specific value
  lifesim config set simulation.workers 8      # Set a value
  lifesim config path                          # Show the config file location`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, err := configFilePath(cmd)
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not persisted.
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}

			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
					"path":   path,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			path, err := configFilePath(cmd)
			if err != nil {
				return err
			}
			_, statErr := os.Stat(path)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":   path,
					"exists": statErr == nil,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// configFilePath returns --config or ~/.lifesim/config.yaml.
func configFilePath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.Path()
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (interface{}, bool) {
	switch key {
	case "grid.size":
		return cfg.Grid.Size, true
	case "simulation.pattern":
		return cfg.Simulation.Pattern, true
	case "simulation.row":
		return cfg.Simulation.Row, true
	case "simulation.col":
		return cfg.Simulation.Col, true
	case "simulation.center":
		return cfg.Simulation.Center, true
	case "simulation.iterations":
		return cfg.Simulation.Iterations, true
	case "simulation.workers":
		return cfg.Simulation.Workers, true
	case "simulation.strategy":
		return cfg.Simulation.Strategy, true
	case "simulation.rule":
		return cfg.Simulation.Rule, true
	case "report.every":
		return cfg.Report.Every, true
	case "report.quiet":
		return cfg.Report.Quiet, true
	case "render.enabled":
		return cfg.Render.Enabled, true
	case "render.margin":
		return cfg.Render.Margin, true
	case "render.alive":
		return cfg.Render.Alive, true
	case "render.dead":
		return cfg.Render.Dead, true
	case "store.enabled":
		return cfg.Store.Enabled, true
	case "store.dir":
		return cfg.Store.Dir, true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key. Range
// checks are left to Config.Validate.
func setConfigValue(cfg *config.Config, key, value string) error {
	var err error
	switch key {
	case "grid.size":
		cfg.Grid.Size, err = parseIntValue(value)
	case "simulation.pattern":
		cfg.Simulation.Pattern = value
	case "simulation.row":
		cfg.Simulation.Row, err = parseIntValue(value)
	case "simulation.col":
		cfg.Simulation.Col, err = parseIntValue(value)
	case "simulation.center":
		cfg.Simulation.Center = parseBoolValue(value)
	case "simulation.iterations":
		cfg.Simulation.Iterations, err = parseIntValue(value)
	case "simulation.workers":
		cfg.Simulation.Workers, err = parseIntValue(value)
	case "simulation.strategy":
		cfg.Simulation.Strategy = value
	case "simulation.rule":
		cfg.Simulation.Rule = value
	case "report.every":
		cfg.Report.Every, err = parseIntValue(value)
	case "report.quiet":
		cfg.Report.Quiet = parseBoolValue(value)
	case "render.enabled":
		cfg.Render.Enabled = parseBoolValue(value)
	case "render.margin":
		cfg.Render.Margin, err = parseIntValue(value)
	case "render.alive":
		cfg.Render.Alive = value
	case "render.dead":
		cfg.Render.Dead = value
	case "store.enabled":
		cfg.Store.Enabled = parseBoolValue(value)
	case "store.dir":
		cfg.Store.Dir = value
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}

var errNotInteger = errors.New("must be an integer")

func parseIntValue(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", value, errNotInteger)
	}
	return n, nil
}

func parseBoolValue(value string) bool {
	return value == "true" || value == "1"
}
