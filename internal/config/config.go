package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure
type Config struct {
	Watcher WatcherConfig    `mapstructure:"watcher" yaml:"watcher"`
	Parse   BatchParseConfig `mapstructure:"parse" yaml:"parse"`
	History HistoryConfig    `mapstructure:"history" yaml:"history"`
	Log     LogConfig        `mapstructure:"log" yaml:"log"`
	Debug   bool             `mapstructure:"debug" yaml:"debug"`
}

// WatcherConfig controls the live-reload pipeline.
type WatcherConfig struct {
	// RetryAttempts is how many times watcher setup is retried after the
	// first failed attempt.
	RetryAttempts int `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	// RetryDelay is the pause between watcher setup attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	// DebounceDuration is both the window in which repeated change
	// notifications are dropped and the settle time before a reparse.
	DebounceDuration time.Duration `mapstructure:"debounce_duration" yaml:"debounce_duration"`
	// ReloadTimeout is advisory. Parses that exceed it are logged, never aborted.
	ReloadTimeout time.Duration `mapstructure:"reload_timeout" yaml:"reload_timeout"`
	// ErrorThreshold is the number of consecutive failures that disables watching.
	ErrorThreshold int `mapstructure:"error_threshold" yaml:"error_threshold"`
	// EventBuffer is the capacity of the lifecycle event channel.
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// BatchParseConfig controls how the parse engine walks a file.
type BatchParseConfig struct {
	BatchSize              int           `mapstructure:"batch_size" yaml:"batch_size"`
	ProgressUpdateInterval time.Duration `mapstructure:"progress_update_interval" yaml:"progress_update_interval"`
	EnableCancellation     bool          `mapstructure:"enable_cancellation" yaml:"enable_cancellation"`
}

// HistoryConfig controls the optional parse history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	Keep    int    `mapstructure:"keep" yaml:"keep"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Defaults for the watcher and parse engine.
const (
	DefaultRetryAttempts          = 3
	DefaultRetryDelay             = 500 * time.Millisecond
	DefaultDebounceDuration       = 100 * time.Millisecond
	DefaultReloadTimeout          = 2 * time.Second
	DefaultErrorThreshold         = 5
	DefaultEventBuffer            = 64
	DefaultBatchSize              = 1000
	MaxBatchSize                  = 100000
	DefaultProgressUpdateInterval = 100 * time.Millisecond
	DefaultHistoryKeep            = 1000

	// InteractiveBatchSize favors progress granularity over throughput.
	InteractiveBatchSize = 100
)

// DefaultWatcherConfig returns the watcher defaults.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		RetryAttempts:    DefaultRetryAttempts,
		RetryDelay:       DefaultRetryDelay,
		DebounceDuration: DefaultDebounceDuration,
		ReloadTimeout:    DefaultReloadTimeout,
		ErrorThreshold:   DefaultErrorThreshold,
		EventBuffer:      DefaultEventBuffer,
	}
}

// DefaultBatchParseConfig returns the parse engine defaults.
func DefaultBatchParseConfig() BatchParseConfig {
	return BatchParseConfig{
		BatchSize:              DefaultBatchSize,
		ProgressUpdateInterval: DefaultProgressUpdateInterval,
		EnableCancellation:     true,
	}
}

// Default returns a fully populated configuration without reading any file.
func Default() *Config {
	return &Config{
		Watcher: DefaultWatcherConfig(),
		Parse:   DefaultBatchParseConfig(),
		History: HistoryConfig{
			Path: DefaultHistoryPath(),
			Keep: DefaultHistoryKeep,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads configuration from the default search locations.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath loads configuration from a specific path.
// If configPath is empty, it searches default locations.
func LoadFromPath(configPath string) (*Config, error) {
	v := viper.New()

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("PAGEVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	applyDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "pageview"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pageview"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.History.Path = expandPath(cfg.History.Path)
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}
	cfg.Log.Path = expandPath(cfg.Log.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults sets default configuration values
func applyDefaults(v *viper.Viper) {
	v.SetDefault("watcher.retry_attempts", DefaultRetryAttempts)
	v.SetDefault("watcher.retry_delay", DefaultRetryDelay.String())
	v.SetDefault("watcher.debounce_duration", DefaultDebounceDuration.String())
	v.SetDefault("watcher.reload_timeout", DefaultReloadTimeout.String())
	v.SetDefault("watcher.error_threshold", DefaultErrorThreshold)
	v.SetDefault("watcher.event_buffer", DefaultEventBuffer)

	v.SetDefault("parse.batch_size", DefaultBatchSize)
	v.SetDefault("parse.progress_update_interval", DefaultProgressUpdateInterval.String())
	v.SetDefault("parse.enable_cancellation", true)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "")
	v.SetDefault("history.keep", DefaultHistoryKeep)

	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("debug", false)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := c.Watcher.Validate(); err != nil {
		return err
	}
	if err := c.Parse.Validate(); err != nil {
		return err
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("history.keep must be >= 0, got %d", c.History.Keep)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if c.Log.Level == level {
			return nil
		}
	}
	return fmt.Errorf("log.level must be one of: %v, got %s", validLevels, c.Log.Level)
}

// Validate checks the watcher settings.
func (w WatcherConfig) Validate() error {
	if w.RetryAttempts < 0 || w.RetryAttempts > 100 {
		return fmt.Errorf("watcher.retry_attempts must be between 0 and 100, got %d", w.RetryAttempts)
	}
	if w.RetryDelay < 0 {
		return fmt.Errorf("watcher.retry_delay must be >= 0, got %v", w.RetryDelay)
	}
	if w.DebounceDuration < 0 {
		return fmt.Errorf("watcher.debounce_duration must be >= 0, got %v", w.DebounceDuration)
	}
	if w.ReloadTimeout < 0 {
		return fmt.Errorf("watcher.reload_timeout must be >= 0, got %v", w.ReloadTimeout)
	}
	if w.ErrorThreshold < 1 {
		return fmt.Errorf("watcher.error_threshold must be >= 1, got %d", w.ErrorThreshold)
	}
	if w.EventBuffer < 1 {
		return fmt.Errorf("watcher.event_buffer must be >= 1, got %d", w.EventBuffer)
	}
	return nil
}

// Validate checks the parse engine settings.
func (p BatchParseConfig) Validate() error {
	if p.BatchSize < 1 || p.BatchSize > MaxBatchSize {
		return fmt.Errorf("parse.batch_size must be between 1 and %d, got %d", MaxBatchSize, p.BatchSize)
	}
	if p.ProgressUpdateInterval < 0 {
		return fmt.Errorf("parse.progress_update_interval must be >= 0, got %v", p.ProgressUpdateInterval)
	}
	return nil
}

// DefaultHistoryPath returns the platform-appropriate history database path.
func DefaultHistoryPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "pageview", "history.db")
	}
	return "pageview-history.db"
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
