package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// configFileUsed tracks the config file that was loaded, for verbose output.
var configFileUsed string

// GetConfigFileUsed returns the path of the config file used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// findConfigFile finds the config file to use.
// Priority: explicit path > echo-service.yaml > echo-service.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// envToKey maps ECHO_SERVICE_DB_FILE to db_file.
func envToKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// flagToKey maps flag names to config keys.
func flagToKey(name string) string {
	switch name {
	case "db":
		return "db_file"
	case "env":
		return "environment"
	default:
		return strings.ReplaceAll(name, "-", "_")
	}
}

// Load loads configuration from defaults, the config file, the .env file,
// environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > .env file > config file > defaults.
// The deployment manifest hardcodes HOST and DB_FILE as process environment,
// so values from the operator-supplied .env file can never override them.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	configFileUsed = ""

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"host":        DefaultHost,
		"port":        DefaultPort,
		"db_file":     DefaultDBFile,
		"environment": DefaultEnvironment,
		"log_level":   DefaultLogLevel,
		"docs_port":   DefaultDocsPort,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file if present
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load .env file if present. Only ECHO_SERVICE_-prefixed keys are
	// mapped to config; the file may carry unrelated variables.
	if _, err := os.Stat(EnvFileName); err == nil {
		if err := k.Load(file.Provider(EnvFileName), dotenv.ParserEnv(EnvPrefix, ".", envToKey)); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", EnvFileName, err)
		}
	}

	// 4. Load environment variables (ECHO_SERVICE_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			return flagToKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.DBFile == "" {
		return nil, fmt.Errorf("db_file must not be empty")
	}

	return &cfg, nil
}
