// Package config provides layered configuration for echo-service.
// Values are resolved from defaults, an optional YAML config file, an
// optional .env file, ECHO_SERVICE_-prefixed environment variables, and CLI
// flags, in that order of increasing precedence.
package config

import (
	"log/slog"
	"strings"
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "echo-service.yaml"
	ConfigFileNameAlt = "echo-service.yml"
	EnvFileName       = ".env"
)

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "ECHO_SERVICE_"

// Defaults.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8000
	DefaultDBFile      = "echo_service.sqlite3"
	DefaultEnvironment = "dev"
	DefaultLogLevel    = "info"
	DefaultDocsPort    = 8001
)

// Config holds the runtime configuration.
type Config struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	DBFile      string `koanf:"db_file"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	// Version overrides the compiled-in version string when set
	// (ECHO_SERVICE_VERSION in the deployment manifest).
	Version string `koanf:"version"`

	DocsDir  string `koanf:"docs_dir"`
	DocsPort int    `koanf:"docs_port"`
}

// SlogLevel maps the configured log level to a slog.Level.
// Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolveVersion returns the version to report: the configured override when
// set, otherwise the compiled-in fallback.
func (c *Config) ResolveVersion(compiled string) string {
	if c.Version != "" {
		return c.Version
	}
	return compiled
}
