package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Iron-Ham/barter/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify barter configuration",
	Long: `View or modify barter configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  barter config set trade.countdown_ticks 10
  barter config set logging.level debug

Valid keys:
  trade.countdown_ticks  - Settlement countdown ticks once both parties are ready
  trade.tick_interval_ms - Countdown tick interval in milliseconds
  trade.queue_capacity   - Apply loop queue capacity
  audit.dir              - Directory for audit entries (empty disables persistence)
  logging.level          - Log level: debug, info, warn, error
  logging.dir            - Log directory (empty logs to stderr)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/barter/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("trade:")
	fmt.Printf("  countdown_ticks: %d\n", cfg.Trade.CountdownTicks)
	fmt.Printf("  tick_interval_ms: %d\n", cfg.Trade.TickIntervalMs)
	fmt.Printf("  queue_capacity: %d\n", cfg.Trade.QueueCapacity)

	fmt.Println("audit:")
	fmt.Printf("  dir: %s\n", cfg.Audit.Dir)

	fmt.Println("logging:")
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	fmt.Printf("  dir: %s\n", cfg.Logging.Dir)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"trade.countdown_ticks":  "int",
		"trade.tick_interval_ms": "int",
		"trade.queue_capacity":   "int",
		"audit.dir":              "string",
		"logging.level":          "string",
		"logging.dir":            "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'barter config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue interface{}
	switch keyType {
	case "string":
		if key == "logging.level" && !isValidLogLevel(value) {
			return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(config.ValidLogLevels(), ", "))
		}
		typedValue = value
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %s (expected an integer)", key, value)
		}
		typedValue = intVal
	}

	// Ensure config file exists
	cfgPath := config.ConfigFile()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := writeDefaultConfig(cfgPath); err != nil {
			return err
		}
	}

	viper.SetConfigFile(cfgPath)
	_ = viper.ReadInConfig()
	viper.Set(key, typedValue)
	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Set %s = %v\n", key, typedValue)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfgPath := config.ConfigFile()
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("config file already exists: %s", cfgPath)
	}

	if err := writeDefaultConfig(cfgPath); err != nil {
		return err
	}

	fmt.Printf("Created config file: %s\n", cfgPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println(config.ConfigFile())
	return nil
}

func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	defaults := config.Default()
	content := fmt.Sprintf(`# barter configuration

trade:
  # Settlement countdown ticks once both parties are ready
  countdown_ticks: %d
  # Countdown tick interval in milliseconds
  tick_interval_ms: %d
  # Apply loop queue capacity
  queue_capacity: %d

audit:
  # Directory for audit entries of settled trades (empty disables persistence)
  dir: "%s"

logging:
  # Log level: debug, info, warn, error
  level: %s
  # Log directory (empty logs to stderr)
  dir: "%s"
`,
		defaults.Trade.CountdownTicks,
		defaults.Trade.TickIntervalMs,
		defaults.Trade.QueueCapacity,
		defaults.Audit.Dir,
		defaults.Logging.Level,
		defaults.Logging.Dir,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	for _, valid := range config.ValidLogLevels() {
		if strings.EqualFold(level, valid) {
			return true
		}
	}
	return false
}
