// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mediabrain/config.yaml",
	"/etc/mediabrain/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "MEDIABRAIN_CONFIG"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (lowercased) to config paths.
// Unknown variables are ignored so the daemon coexists with anything else
// in the environment.
var envMappings = map[string]string{
	"scan_roots":           "scan.roots",
	"scan_interval":        "scan.interval",
	"scan_notify_debounce": "scan.notify_debounce",

	"watch_browser_enabled": "watch.browser_enabled",
	"watch_app_enabled":     "watch.app_enabled",
	"watch_interval":        "watch.interval",
	"watch_seen_cache_size": "watch.seen_cache_size",
	"watch_seen_ttl":        "watch.seen_ttl",
	"watch_sample_command":  "watch.sample_command",

	"queue_high_water": "queue.high_water",

	"database_path":                 "database.path",
	"database_in_memory":            "database.in_memory",
	"database_maintenance_interval": "database.maintenance_interval",
	"database_backup_dir":           "database.backup_dir",
	"database_backup_interval":      "database.backup_interval",
	"database_backup_keep":          "database.backup_keep",

	"processor_drain_grace": "processor.drain_grace",

	"metadata_enabled":             "metadata.enabled",
	"metadata_timeout":             "metadata.timeout",
	"metadata_requests_per_second": "metadata.requests_per_second",
	"metadata_burst":               "metadata.burst",

	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"cors_origins":      "server.cors_origins",
	"rate_limit_reqs":   "server.rate_limit_reqs",
	"rate_limit_window": "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths. An
// optional MEDIABRAIN_ prefix is stripped first, so both SCAN_ROOTS and
// MEDIABRAIN_SCAN_ROOTS work.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, "mediabrain_")
	return envMappings[key]
}

// sliceConfigPaths are the paths parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"scan.roots",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// the known slice fields. YAML-provided slices pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
