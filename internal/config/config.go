// Package config handles loading and validating doseview configuration.
// Supports a YAML config file and DOSEVIEW_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mkrenz/doseview/internal/units"
)

// Validation errors.
var (
	ErrCronAndInterval  = errors.New("monitor: cron and interval are mutually exclusive")
	ErrInvalidInterval  = errors.New("monitor: invalid interval")
	ErrInvalidRetention = errors.New("monitor: retention_days must be positive")
	ErrInvalidUnits     = errors.New("invalid units (want mg/dl or mmol)")
	ErrInvalidLogLevel  = errors.New("logging: invalid level")
	ErrInvalidLogFormat = errors.New("logging: invalid format")
	ErrMissingURL       = errors.New("nightscout: url is required")
)

// NightscoutConfig holds connection settings for the Nightscout server.
type NightscoutConfig struct {
	URL       string `mapstructure:"url"`
	APISecret string `mapstructure:"api_secret"`
	APIToken  string `mapstructure:"api_token"`
	UseToken  bool   `mapstructure:"use_token"`
}

// MonitorConfig controls the sampling loop.
type MonitorConfig struct {
	// Interval between progress samples, Go duration syntax. Default 30s.
	Interval string `mapstructure:"interval"`
	// Cron schedules Nightscout refreshes instead of the fixed interval.
	Cron string `mapstructure:"cron"`
	// RetentionDays bounds how long progress samples are kept.
	RetentionDays int `mapstructure:"retention_days"`
}

// LoggingConfig mirrors logging.Config in the config file.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// Config holds all doseview configuration.
type Config struct {
	Nightscout NightscoutConfig `mapstructure:"nightscout"`
	Units      string           `mapstructure:"units"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	DBPath     string           `mapstructure:"db_path"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// GlobalConfigPath returns the path of the user config file.
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "doseview", "doseview.yaml")
}

// DefaultDBPath returns the default sqlite database path.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "doseview", "doseview.db")
}

// Load reads configuration from the config file and environment.
func Load() (*Config, error) {
	return LoadFrom(GlobalConfigPath())
}

// LoadFrom reads configuration from the given file path. A missing file is
// not an error; defaults and environment variables still apply.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("units", "mg/dl")
	v.SetDefault("monitor.retention_days", 30)
	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetEnvPrefix("DOSEVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks a config for internal consistency.
func Validate(cfg *Config) error {
	if cfg.Monitor.Cron != "" && cfg.Monitor.Interval != "" {
		return ErrCronAndInterval
	}

	if cfg.Monitor.Interval != "" {
		if _, err := time.ParseDuration(cfg.Monitor.Interval); err != nil {
			return ErrInvalidInterval
		}
	}

	if cfg.Monitor.RetentionDays < 0 {
		return ErrInvalidRetention
	}

	if cfg.Units != "" {
		if _, err := units.Parse(cfg.Units); err != nil {
			return ErrInvalidUnits
		}
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}

// DisplayUnits resolves the configured display unit.
func (c *Config) DisplayUnits() (units.Unit, error) {
	if c.Units == "" {
		return units.MgdL, nil
	}
	return units.Parse(c.Units)
}

// SampleInterval resolves the monitor interval, defaulting to 30 seconds.
func (c *Config) SampleInterval() time.Duration {
	if c.Monitor.Interval == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.Monitor.Interval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ExpandedDBPath returns the database path with ~ expanded.
func (c *Config) ExpandedDBPath() string {
	if c.DBPath == "" {
		return DefaultDBPath()
	}
	return ExpandPath(c.DBPath)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
