package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/username/jp-holiday-mcp/pkg/dateutil"
)

const envPrefix = "JPHOLIDAY"

// Config represents application configuration
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// DataConfig represents the holiday dataset location
type DataConfig struct {
	Path         string `mapstructure:"path" validate:"required"`
	FallbackPath string `mapstructure:"fallback_path"`
	Watch        bool   `mapstructure:"watch"` // Reset the cache when the file changes
}

// ServerConfig represents MCP server configuration
type ServerConfig struct {
	Name                string `mapstructure:"name" validate:"required"`
	Version             string `mapstructure:"version" validate:"required"`
	TimezoneOffsetHours int    `mapstructure:"timezone_offset_hours" validate:"gte=-12,lte=14"` // Used for "today"
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
}

// MetricsConfig represents the Prometheus endpoint
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"omitempty,hostname_port"`
}

// Defaults returns a viper instance with default values applied
func Defaults() *viper.Viper {
	v := viper.New()

	v.SetDefault("data.path", "data/calendar_holiday.json")
	v.SetDefault("data.fallback_path", "")
	v.SetDefault("data.watch", false)
	v.SetDefault("server.name", "japanese-holiday")
	v.SetDefault("server.version", "1.0.0")
	v.SetDefault("server.timezone_offset_hours", 9)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.listen_addr", "")

	return v
}

// Load loads configuration from file. A missing config file is not an error
// unless configPath was given explicitly.
func Load(configPath string) (*Config, error) {
	v := Defaults()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.jp-holiday-mcp")
		v.AddConfigPath("/etc/jp-holiday-mcp")
	}

	// Read environment variables, e.g. JPHOLIDAY_DATA_PATH
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Data.FallbackPath != "" && c.Data.FallbackPath == c.Data.Path {
		return fmt.Errorf("data.fallback_path must differ from data.path")
	}

	return nil
}

// Location returns the time zone used to compute "today"
func (c *ServerConfig) Location() *time.Location {
	return dateutil.FixedZone(c.TimezoneOffsetHours)
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Data.Path = os.ExpandEnv(c.Data.Path)
	c.Data.FallbackPath = os.ExpandEnv(c.Data.FallbackPath)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
