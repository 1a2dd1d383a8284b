package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != DefaultHost {
		t.Errorf("expected host %q, got %q", DefaultHost, cfg.Host)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.DBFile != DefaultDBFile {
		t.Errorf("expected db_file %q, got %q", DefaultDBFile, cfg.DBFile)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected log_level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ConfigFileName, "host: 10.0.0.1\nport: 9000\n")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "10.0.0.1" {
		t.Errorf("expected host from config file, got %q", cfg.Host)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected port from config file, got %d", cfg.Port)
	}
	if GetConfigFileUsed() == "" {
		t.Error("expected config file to be tracked")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, EnvFileName,
		"ECHO_SERVICE_PORT=9100\nECHO_SERVICE_ENVIRONMENT=staging\nUNRELATED_KEY=ignored\n")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("expected port from .env, got %d", cfg.Port)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment from .env, got %q", cfg.Environment)
	}
}

// Process environment must always win over the .env file: the deployment
// manifest hardcodes HOST and DB_FILE in the process environment and expects
// the operator .env file to be unable to override them.
func TestLoad_ProcessEnvBeatsEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, EnvFileName,
		"ECHO_SERVICE_HOST=10.1.1.1\nECHO_SERVICE_DB_FILE=/tmp/evil.sqlite3\n")
	t.Setenv("ECHO_SERVICE_HOST", "0.0.0.0")
	t.Setenv("ECHO_SERVICE_DB_FILE", "/db_data/db.sqlite3")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("process env should override .env for host, got %q", cfg.Host)
	}
	if cfg.DBFile != "/db_data/db.sqlite3" {
		t.Errorf("process env should override .env for db_file, got %q", cfg.DBFile)
	}
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ECHO_SERVICE_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("db", "", "")
	if err := flags.Parse([]string{"--port", "9200", "--db", "flag.sqlite3"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9200 {
		t.Errorf("flag should override env var, got port %d", cfg.Port)
	}
	if cfg.DBFile != "flag.sqlite3" {
		t.Errorf("--db flag should map to db_file, got %q", cfg.DBFile)
	}
}

func TestLoad_UnsetFlagsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 1234, "")
	if err := flags.Parse(nil); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("unchanged flag should not override default, got %d", cfg.Port)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ECHO_SERVICE_PORT", "70000")

	if _, err := Load("", nil); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestResolveVersion(t *testing.T) {
	cfg := &Config{}
	if got := cfg.ResolveVersion("0.1.0"); got != "0.1.0" {
		t.Errorf("expected compiled version, got %q", got)
	}

	cfg.Version = "1.2.3"
	if got := cfg.ResolveVersion("0.1.0"); got != "1.2.3" {
		t.Errorf("expected override version, got %q", got)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
