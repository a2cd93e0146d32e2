// Package config provides configuration management for feedarr using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultMaxOpenConns        = 25
	defaultMaxIdleConns        = 10
	defaultConnMaxIdleTime     = 30 * time.Minute
	defaultHTTPTimeout         = 60 * time.Second
	defaultRetryAttempts       = 3
	defaultRetryDelay          = time.Second
	defaultSourceConcurrency   = 4
	defaultChannelBatchSize    = 1000
	defaultEventBatchSize      = 5000
	defaultMaxTenantCycles     = 3
	defaultCycleTimeout        = 15 * time.Minute
	defaultImageFetchTimeout   = 10 * time.Second
	defaultImageFetchPerSecond = 5
	defaultImageFetchBurst     = 10
	defaultMaxImageSizeBytes   = 10 * 1024 * 1024 // 10MB
	defaultGuideHorizon        = "30d"
)

// Config holds all configuration for the application.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Imaging   ImagingConfig   `mapstructure:"imaging"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	BaseDir   string `mapstructure:"base_dir"`
	MirrorDir string `mapstructure:"mirror_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// IngestionConfig holds source fetching and parsing configuration.
type IngestionConfig struct {
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	SourceConcurrency int           `mapstructure:"source_concurrency"`
	ChannelBatchSize  int           `mapstructure:"channel_batch_size"`
	EventBatchSize    int           `mapstructure:"event_batch_size"`
	// GuideHorizon is how far ahead guide programmes are kept. Supports
	// extended units like "30d" or "2w".
	GuideHorizon Duration `mapstructure:"guide_horizon"`
}

// SchedulerConfig holds parse-cycle scheduling configuration.
type SchedulerConfig struct {
	// MaxConcurrentCycles bounds how many tenant cycles run at once.
	MaxConcurrentCycles int `mapstructure:"max_concurrent_cycles"`
	// CycleTimeout is the ceiling for one tenant's parse cycle.
	CycleTimeout time.Duration `mapstructure:"cycle_timeout"`
}

// ImagingConfig holds image resolution and caching configuration.
type ImagingConfig struct {
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	FetchPerSecond float64       `mapstructure:"fetch_per_second"`
	FetchBurst     int           `mapstructure:"fetch_burst"`
	// MaxImageSize is the largest artwork payload accepted from upstream.
	// Supports human-readable values like "5MB", "1GB", or raw byte counts.
	MaxImageSize ByteSize `mapstructure:"max_image_size"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with FEEDARR_ and use underscores for
// nesting. Example: FEEDARR_DATABASE_DSN=feedarr.db.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/feedarr")
		v.AddConfigPath("$HOME/.feedarr")
	}

	v.SetEnvPrefix("FEEDARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults
// are in place.
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "feedarr.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.mirror_dir", "static")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Ingestion defaults
	v.SetDefault("ingestion.http_timeout", defaultHTTPTimeout)
	v.SetDefault("ingestion.retry_attempts", defaultRetryAttempts)
	v.SetDefault("ingestion.retry_delay", defaultRetryDelay)
	v.SetDefault("ingestion.source_concurrency", defaultSourceConcurrency)
	v.SetDefault("ingestion.channel_batch_size", defaultChannelBatchSize)
	v.SetDefault("ingestion.event_batch_size", defaultEventBatchSize)
	v.SetDefault("ingestion.guide_horizon", defaultGuideHorizon)

	// Scheduler defaults
	v.SetDefault("scheduler.max_concurrent_cycles", defaultMaxTenantCycles)
	v.SetDefault("scheduler.cycle_timeout", defaultCycleTimeout)

	// Imaging defaults
	v.SetDefault("imaging.fetch_timeout", defaultImageFetchTimeout)
	v.SetDefault("imaging.fetch_per_second", defaultImageFetchPerSecond)
	v.SetDefault("imaging.fetch_burst", defaultImageFetchBurst)
	v.SetDefault("imaging.max_image_size", defaultMaxImageSizeBytes)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Database validation
	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	// Storage validation
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// Ingestion validation
	if c.Ingestion.SourceConcurrency < 1 {
		return fmt.Errorf("ingestion.source_concurrency must be at least 1")
	}
	if c.Ingestion.ChannelBatchSize < 1 {
		return fmt.Errorf("ingestion.channel_batch_size must be at least 1")
	}
	if c.Ingestion.EventBatchSize < 1 {
		return fmt.Errorf("ingestion.event_batch_size must be at least 1")
	}
	if c.Ingestion.GuideHorizon.Duration() <= 0 {
		return fmt.Errorf("ingestion.guide_horizon must be positive")
	}

	// Scheduler validation
	if c.Scheduler.MaxConcurrentCycles < 1 {
		return fmt.Errorf("scheduler.max_concurrent_cycles must be at least 1")
	}
	if c.Scheduler.CycleTimeout <= 0 {
		return fmt.Errorf("scheduler.cycle_timeout must be positive")
	}

	// Imaging validation
	if c.Imaging.FetchPerSecond <= 0 {
		return fmt.Errorf("imaging.fetch_per_second must be positive")
	}

	return nil
}

// MirrorPath returns the full path to the local artwork mirror directory.
func (c *StorageConfig) MirrorPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.MirrorDir)
}
