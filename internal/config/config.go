// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package config loads the daemon configuration from layered sources with
// clear precedence: environment variables over the optional YAML file over
// built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration.
type Config struct {
	Scan      ScanConfig      `koanf:"scan"`
	Watch     WatchConfig     `koanf:"watch"`
	Queue     QueueConfig     `koanf:"queue"`
	Database  DatabaseConfig  `koanf:"database"`
	Processor ProcessorConfig `koanf:"processor"`
	Metadata  MetadataConfig  `koanf:"metadata"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ScanConfig configures the file indexer.
type ScanConfig struct {
	// Roots are the directories scanned for media files.
	Roots []string `koanf:"roots"`
	// Interval is the periodic full-scan cadence.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
	// NotifyDebounce batches filesystem notifications; 0 disables them.
	NotifyDebounce time.Duration `koanf:"notify_debounce"`
}

// WatchConfig configures the activity watchers.
type WatchConfig struct {
	BrowserEnabled bool          `koanf:"browser_enabled"`
	AppEnabled     bool          `koanf:"app_enabled"`
	Interval       time.Duration `koanf:"interval" validate:"gt=0"`
	// SeenCacheSize and SeenTTL bound the activity dedup window.
	SeenCacheSize int           `koanf:"seen_cache_size" validate:"gt=0"`
	SeenTTL       time.Duration `koanf:"seen_ttl" validate:"gt=0"`
	// SampleCommand probes the active window; it must print the window's
	// process id on the first line and its title on the second.
	SampleCommand string `koanf:"sample_command"`
}

// QueueConfig configures the event queue.
type QueueConfig struct {
	// HighWater is the depth at which a diagnostic counter fires.
	HighWater int `koanf:"high_water" validate:"gte=0"`
}

// DatabaseConfig configures the BadgerDB store.
type DatabaseConfig struct {
	Path                string        `koanf:"path"`
	InMemory            bool          `koanf:"in_memory"`
	MaintenanceInterval time.Duration `koanf:"maintenance_interval" validate:"gt=0"`
	// BackupDir enables periodic backups when non-empty.
	BackupDir      string        `koanf:"backup_dir"`
	BackupInterval time.Duration `koanf:"backup_interval" validate:"gt=0"`
	// BackupKeep bounds how many backup files are retained.
	BackupKeep int `koanf:"backup_keep" validate:"gt=0"`
}

// ProcessorConfig configures the event processor.
type ProcessorConfig struct {
	// DrainGrace bounds how long shutdown waits for the queued backlog.
	DrainGrace time.Duration `koanf:"drain_grace" validate:"gt=0"`
}

// MetadataConfig configures metadata enrichment.
type MetadataConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"gt=0"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before the file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Roots:          []string{},
			Interval:       15 * time.Minute,
			NotifyDebounce: 2 * time.Second,
		},
		Watch: WatchConfig{
			BrowserEnabled: true,
			AppEnabled:     true,
			Interval:       2 * time.Second,
			SeenCacheSize:  10000,
			SeenTTL:        5 * time.Minute,
			SampleCommand:  "xdotool getactivewindow getwindowpid getwindowname",
		},
		Queue: QueueConfig{
			HighWater: 1000,
		},
		Database: DatabaseConfig{
			Path:                "/data/mediabrain",
			InMemory:            false,
			MaintenanceInterval: 10 * time.Minute,
			BackupDir:           "",
			BackupInterval:      24 * time.Hour,
			BackupKeep:          7,
		},
		Processor: ProcessorConfig{
			DrainGrace: 5 * time.Second,
		},
		Metadata: MetadataConfig{
			Enabled:           true,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8490,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("config validation: database.path is required unless database.in_memory is set")
	}
	return nil
}
