// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides (STEADYAIM_LOGGER_LEVEL, ...).
const EnvPrefix = "STEADYAIM"

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Profiles  ProfilesConfig  `mapstructure:"profiles" yaml:"profiles"`
	Humanizer HumanizerConfig `mapstructure:"humanizer" yaml:"humanizer"`
	Loop      LoopConfig      `mapstructure:"loop" yaml:"loop"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console color per log level. Levels above error
// share the error color.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
}

// ProfilesConfig points at the profile store.
type ProfilesConfig struct {
	// Dir may start with "~", it is expanded when profiles are resolved.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Default is the profile name used by `run` when --profile is not given.
	Default string `mapstructure:"default" yaml:"default"`
	// Watch reloads the active profile when its file changes.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// LoopConfig tunes the pacing of the compensation loop.
type LoopConfig struct {
	IdlePoll             time.Duration `mapstructure:"idle_poll" yaml:"idle_poll"`
	ErrorBackoff         time.Duration `mapstructure:"error_backoff" yaml:"error_backoff"`
	EmptyPatternBackoff  time.Duration `mapstructure:"empty_pattern_backoff" yaml:"empty_pattern_backoff"`
	MalformedStepBackoff time.Duration `mapstructure:"malformed_step_backoff" yaml:"malformed_step_backoff"`
	JoinTimeout          time.Duration `mapstructure:"join_timeout" yaml:"join_timeout"`
	StatusInterval       time.Duration `mapstructure:"status_interval" yaml:"status_interval"`
	// ErrorLogRate is the number of tick errors per second that reach the log.
	ErrorLogRate  float64 `mapstructure:"error_log_rate" yaml:"error_log_rate"`
	ErrorLogBurst int     `mapstructure:"error_log_burst" yaml:"error_log_burst"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "steadyaim")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Profiles --
	v.SetDefault("profiles.dir", "~/.steadyaim/profiles")
	v.SetDefault("profiles.default", "")
	v.SetDefault("profiles.watch", false)

	// -- Humanizer --
	setHumanizerDefaults(v)

	// -- Loop --
	v.SetDefault("loop.idle_poll", 10*time.Millisecond)
	v.SetDefault("loop.error_backoff", 100*time.Millisecond)
	v.SetDefault("loop.empty_pattern_backoff", 50*time.Millisecond)
	v.SetDefault("loop.malformed_step_backoff", 10*time.Millisecond)
	v.SetDefault("loop.join_timeout", time.Second)
	v.SetDefault("loop.status_interval", 5*time.Second)
	v.SetDefault("loop.error_log_rate", 1.0)
	v.SetDefault("loop.error_log_burst", 5)
}

// NewViper returns a viper instance with defaults registered and environment
// overrides enabled. If cfgFile is empty, ./config.yaml is used when present.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return v, nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := c.Humanizer.Validate(); err != nil {
		return fmt.Errorf("humanizer configuration invalid: %w", err)
	}
	if err := c.Loop.Validate(); err != nil {
		return fmt.Errorf("loop configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the loop timings.
func (l *LoopConfig) Validate() error {
	if l.IdlePoll <= 0 {
		return fmt.Errorf("idle_poll must be a positive duration")
	}
	if l.ErrorBackoff <= 0 {
		return fmt.Errorf("error_backoff must be a positive duration")
	}
	if l.EmptyPatternBackoff <= 0 || l.MalformedStepBackoff <= 0 {
		return fmt.Errorf("pattern backoffs must be positive durations")
	}
	if l.JoinTimeout <= 0 {
		return fmt.Errorf("join_timeout must be a positive duration")
	}
	if l.StatusInterval < 0 {
		return fmt.Errorf("status_interval must not be negative")
	}
	if l.ErrorLogRate <= 0 || math.IsInf(l.ErrorLogRate, 0) || math.IsNaN(l.ErrorLogRate) {
		return fmt.Errorf("error_log_rate must be a positive number")
	}
	if l.ErrorLogBurst < 1 {
		return fmt.Errorf("error_log_burst must be at least 1")
	}
	return nil
}
