package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Host:          "127.0.0.1",
		Port:          8080,
		DataDirectory: t.TempDir(),
		ProfilePath:   "/etc/pdf-stamper/profile.json",
		Scale:         1.5,
		MaxUploadSize: 1024,
		VaultTTL:      3 * time.Hour,
		SweepInterval: time.Hour,
		SigningSecret: "secret",
		LogLevel:      "info",
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.Scale != 1.5 {
		t.Errorf("Expected default scale to be 1.5, got %g", cfg.Scale)
	}

	if cfg.VaultTTL != 3*time.Hour {
		t.Errorf("Expected default vault TTL to be 3h, got %v", cfg.VaultTTL)
	}

	if cfg.SweepInterval != time.Hour {
		t.Errorf("Expected default sweep interval to be 1h, got %v", cfg.SweepInterval)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxUploadSize != 50*1024*1024 {
		t.Errorf("Expected default max upload size to be 50MB, got %d", cfg.MaxUploadSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.DataDirectory != filepath.Join(currentDir, "data") {
		t.Errorf("Expected default data directory under the working directory, got '%s'", cfg.DataDirectory)
	}

	if cfg.ContentDetection {
		t.Error("Expected content detection to be off by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port - too low",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "empty data directory",
			mutate:  func(c *Config) { c.DataDirectory = "" },
			wantErr: true,
		},
		{
			name:    "empty profile path",
			mutate:  func(c *Config) { c.ProfilePath = "" },
			wantErr: true,
		},
		{
			name:    "zero scale",
			mutate:  func(c *Config) { c.Scale = 0 },
			wantErr: true,
		},
		{
			name:    "negative scale",
			mutate:  func(c *Config) { c.Scale = -1.5 },
			wantErr: true,
		},
		{
			name:    "invalid max upload size",
			mutate:  func(c *Config) { c.MaxUploadSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero vault TTL",
			mutate:  func(c *Config) { c.VaultTTL = 0 },
			wantErr: true,
		},
		{
			name:    "zero sweep interval",
			mutate:  func(c *Config) { c.SweepInterval = 0 },
			wantErr: true,
		},
		{
			name:    "empty signing secret",
			mutate:  func(c *Config) { c.SigningSecret = "" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateCreatesDataDirectory(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDirectory = filepath.Join(t.TempDir(), "nested", "data")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() error = %v", err)
	}

	if _, err := os.Stat(cfg.DataDirectory); err != nil {
		t.Errorf("Expected data directory to be created: %v", err)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigDataPaths(t *testing.T) {
	cfg := &Config{DataDirectory: "/var/lib/pdf-stamper"}

	if got := cfg.TemplateDSN(); got != "/var/lib/pdf-stamper/templates.db" {
		t.Errorf("Config.TemplateDSN() = %v", got)
	}
	if got := cfg.VaultDSN(); got != "/var/lib/pdf-stamper/vault.db" {
		t.Errorf("Config.VaultDSN() = %v", got)
	}
	if got := cfg.VaultDirectory(); got != "/var/lib/pdf-stamper/vault" {
		t.Errorf("Config.VaultDirectory() = %v", got)
	}
}

func TestConfigAnalyzerEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.AnalyzerEnabled() {
		t.Error("Config.AnalyzerEnabled() should be false without an endpoint")
	}

	cfg.AnalyzerEndpoint = "http://localhost:9000/analyze"
	if !cfg.AnalyzerEnabled() {
		t.Error("Config.AnalyzerEnabled() should be true with an endpoint")
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     bool
	}{
		{
			name:     "debug level",
			logLevel: "debug",
			want:     true,
		},
		{
			name:     "info level",
			logLevel: "info",
			want:     false,
		},
		{
			name:     "warn level",
			logLevel: "warn",
			want:     false,
		},
		{
			name:     "error level",
			logLevel: "error",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Host:          "localhost",
		Port:          8080,
		DataDirectory: "/var/lib/pdf-stamper",
		ProfilePath:   "/etc/pdf-stamper/profile.json",
		Scale:         1.5,
		LogLevel:      "debug",
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Host: localhost",
		"Port: 8080",
		"DataDirectory: /var/lib/pdf-stamper",
		"ProfilePath: /etc/pdf-stamper/profile.json",
		"Scale: 1.5",
		"LogLevel: debug",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	invalidLevels := []string{"DEBUG", "INFO", "trace", "fatal", ""}

	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level

			if err := cfg.Validate(); err != nil {
				t.Errorf("Config.Validate() should accept log level '%s', got error: %v", level, err)
			}
		})
	}

	for _, level := range invalidLevels {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level

			if err := cfg.Validate(); err == nil {
				t.Errorf("Config.Validate() should reject log level '%s'", level)
			}
		})
	}
}
