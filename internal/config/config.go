package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the complete barter configuration
type Config struct {
	Trade   TradeConfig   `mapstructure:"trade"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TradeConfig controls exchange behavior
type TradeConfig struct {
	// CountdownTicks is the number of settlement countdown ticks once both
	// parties are ready (default: 5)
	CountdownTicks int `mapstructure:"countdown_ticks"`
	// TickIntervalMs is the countdown tick interval in milliseconds (default: 1000)
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
	// QueueCapacity bounds the apply loop's deferred-step queue (default: 256)
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// AuditConfig controls persistence of settled trades
type AuditConfig struct {
	// Dir is the directory audit entries are written to.
	// If empty, settled trades are not persisted.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory the log file is written to.
	// If empty, logs go to stderr.
	Dir string `mapstructure:"dir"`
}

// TickInterval returns the countdown tick interval as a time.Duration
func (t *TradeConfig) TickInterval() time.Duration {
	return time.Duration(t.TickIntervalMs) * time.Millisecond
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Trade: TradeConfig{
			CountdownTicks: 5,
			TickIntervalMs: 1000,
			QueueCapacity:  256,
		},
		Audit: AuditConfig{
			Dir: "", // Empty means no persistence
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "", // Empty means stderr
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Trade defaults
	viper.SetDefault("trade.countdown_ticks", defaults.Trade.CountdownTicks)
	viper.SetDefault("trade.tick_interval_ms", defaults.Trade.TickIntervalMs)
	viper.SetDefault("trade.queue_capacity", defaults.Trade.QueueCapacity)

	// Audit defaults
	viper.SetDefault("audit.dir", defaults.Audit.Dir)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// Watch reloads the configuration whenever the config file changes and hands
// each valid new Config to fn. Invalid edits are ignored; the previous
// configuration stays in effect. No-op when no config file is in use.
func Watch(fn func(*Config)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(fsnotify.Event) {
		cfg, err := Load()
		if err != nil {
			return
		}
		fn(cfg)
	})
	viper.WatchConfig()
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "barter")
	}
	// Fall back to ~/.config/barter
	home, err := os.UserHomeDir()
	if err != nil {
		return ".barter"
	}
	return filepath.Join(home, ".config", "barter")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
